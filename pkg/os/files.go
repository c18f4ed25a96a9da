package os

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/path"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

func (h *Host) FileExists(file string) bool {
	exists, err := afero.Exists(h.Fs, file)
	return err == nil && exists
}

func (h *Host) ReadFile(file string) ([]byte, error) {
	data, err := afero.ReadFile(h.Fs, file)
	return data, errors.Wrapf(err, "reading %s", file)
}

// WriteFile writes data to file unless it already holds exactly that content. A differing file is
// copied to a timestamped backup first. It reports whether the file changed.
func (h *Host) WriteFile(file string, data []byte, perm os.FileMode) (bool, error) {
	current, err := afero.ReadFile(h.Fs, file)
	switch {
	case err == nil:
		if bytes.Equal(current, data) {
			log.Tracef("\"%s\" is up to date", file)
			return false, nil
		}
		if _, err = h.BackupFile(file); err != nil {
			return false, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return false, errors.Wrapf(err, "reading %s", file)
	}
	if err = h.Fs.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return false, errors.Wrapf(err, "creating %s", filepath.Dir(file))
	}
	if err = afero.WriteFile(h.Fs, file, data, perm); err != nil {
		return false, errors.Wrapf(err, "writing %s", file)
	}
	// afero honours the umask, so set the mode explicitly
	if err = h.Fs.Chmod(file, perm); err != nil {
		return false, errors.Wrapf(err, "changing mode of %s", file)
	}
	log.Debugf("\"%s\" written", file)
	return true, nil
}

// BackupFile copies file next to itself with a timestamp suffix and returns the backup path.
func (h *Host) BackupFile(file string) (string, error) {
	info, err := h.Fs.Stat(file)
	if err != nil {
		return "", errors.Wrapf(err, "stat %s", file)
	}
	data, err := afero.ReadFile(h.Fs, file)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", file)
	}
	backup := path.BackupName(file, h.Now())
	if err = afero.WriteFile(h.Fs, backup, data, info.Mode().Perm()); err != nil {
		return "", errors.Wrapf(err, "writing backup %s", backup)
	}
	log.Debugf("\"%s\" backed up to \"%s\"", file, backup)
	return backup, nil
}

// CopyFile copies src to dst through WriteFile. It reports whether dst changed.
func (h *Host) CopyFile(src, dst string, perm os.FileMode) (bool, error) {
	data, err := h.ReadFile(src)
	if err != nil {
		return false, err
	}
	return h.WriteFile(dst, data, perm)
}

// UserHome resolves the home directory and uid:gid of user. An empty user means root.
func (h *Host) UserHome(ctx context.Context, user string) (home, owner string, err error) {
	if user == "" || user == "root" {
		return "/root", "0:0", nil
	}
	entry, err := h.Exec.Run(ctx, fmt.Sprintf("getent passwd %s", user))
	if err != nil {
		return "", "", errors.Wrapf(err, "looking up user %s", user)
	}
	fields := strings.Split(strings.TrimSpace(entry), ":")
	if len(fields) < 6 {
		return "", "", errors.Errorf("unexpected passwd entry for %s: %s", user, entry)
	}
	return fields[5], fields[2] + ":" + fields[3], nil
}

// Chown changes the owner of file to owner given as "uid:gid".
func (h *Host) Chown(file, owner string) error {
	uidStr, gidStr, found := strings.Cut(owner, ":")
	if !found {
		return errors.Errorf("invalid owner %q", owner)
	}
	uid, err := strconv.Atoi(uidStr)
	if err != nil {
		return errors.Wrapf(err, "invalid uid %q", uidStr)
	}
	gid, err := strconv.Atoi(gidStr)
	if err != nil {
		return errors.Wrapf(err, "invalid gid %q", gidStr)
	}
	return errors.Wrapf(h.Fs.Chown(file, uid, gid), "changing owner of %s", file)
}

// ReplaceFile writes data to file without keeping a backup of the previous content.
func (h *Host) ReplaceFile(file string, data []byte, perm os.FileMode) error {
	if err := h.Fs.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(file))
	}
	if err := afero.WriteFile(h.Fs, file, data, perm); err != nil {
		return errors.Wrapf(err, "writing %s", file)
	}
	return errors.Wrapf(h.Fs.Chmod(file, perm), "changing mode of %s", file)
}
