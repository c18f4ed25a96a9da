package connection

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	kos "com.github.tunahansezen/kubeboot/pkg/os"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/guumaster/logsymbols"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/afero/sftpfs"
	"golang.org/x/crypto/ssh"
)

type Node struct {
	IP                net.IP
	SSHUser           string
	SSHPass           string
	SSHPrivateKeyPath string
}

func (n Node) String() string {
	return n.SSHUser + "@" + n.IP.String()
}

// Client holds an SSH connection and the SFTP session opened on it.
type Client struct {
	node *Node
	ssh  *ssh.Client
	sftp *sftp.Client
}

func IsReachable(host string, port int) bool {
	log.Debugf("Checking \"%s:%d\" is reachable", host, port)
	returnBool := false
	timeout := 5 * time.Second
	conn, _ := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if conn != nil {
		defer func() {
			err := conn.Close()
			if err != nil {
				log.Errorf("Error occurred while closing connection with %s:%d", host, port)
			}
		}()
		returnBool = true
	}
	if returnBool {
		log.Debugf("%s:%d is reachable", host, port)
	}
	return returnBool
}

// Connect opens SSH and SFTP sessions to node. The password is asked for when no credential is
// configured and interactive is set.
func Connect(node *Node, interactive bool) (*Client, error) {
	if !IsReachable(node.IP.String(), constant.SSHPort) {
		return nil, errors.Errorf("%s:%d is not reachable", node.IP, constant.SSHPort)
	}
	if node.SSHPass == "" && node.SSHPrivateKeyPath == "" {
		if !interactive {
			return nil, errors.Errorf("no SSH password or private key configured for %s", node)
		}
		pass, err := util.AskString(fmt.Sprintf("Please enter SSH pass for %s", node), true, util.PasswordValidator)
		if err != nil {
			return nil, err
		}
		node.SSHPass = pass
	}
	auth, err := authMethods(node)
	if err != nil {
		return nil, err
	}
	util.StartSpinner(fmt.Sprintf("Checking SSH connection to %s", node))
	sshClient, err := sshDial(node.SSHUser, auth, node.IP.String())
	if err != nil {
		util.StopSpinner(fmt.Sprintf("SSH authentication failed for %s", node.IP), logsymbols.Error)
		return nil, errors.Wrapf(err, "connecting to %s", node)
	}
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		util.StopSpinner(fmt.Sprintf("SFTP session failed for %s", node.IP), logsymbols.Error)
		return nil, errors.Wrapf(err, "opening sftp session on %s", node)
	}
	util.StopSpinner(fmt.Sprintf("SSH connection successful for %s with user \"%s\"", node.IP, node.SSHUser),
		logsymbols.Success)
	return &Client{node: node, ssh: sshClient, sftp: sftpClient}, nil
}

func authMethods(node *Node) ([]ssh.AuthMethod, error) {
	if node.SSHPass != "" {
		return []ssh.AuthMethod{ssh.Password(node.SSHPass)}, nil
	}
	pemBytes, err := os.ReadFile(node.SSHPrivateKeyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading private key %s", node.SSHPrivateKeyPath)
	}
	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing private key %s", node.SSHPrivateKeyPath)
	}
	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

func sshDial(user string, auth []ssh.AuthMethod, addr string) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            user,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // lgtm[go/insecure-hostkeycallback]
		Auth:            auth,
		Timeout:         10 * time.Second,
	}
	return ssh.Dial("tcp", net.JoinHostPort(addr, strconv.Itoa(constant.SSHPort)), config)
}

func (c *Client) Executor() kos.Executor {
	return &SSHExecutor{client: c.ssh, node: c.node}
}

// Fs exposes the remote filesystem through SFTP.
func (c *Client) Fs() afero.Fs {
	return sftpfs.New(c.sftp)
}

func (c *Client) Close() {
	if err := c.sftp.Close(); err != nil {
		log.Errorf("Error occurred while closing sftp client with %s", c.node.IP)
	}
	if err := c.ssh.Close(); err != nil {
		log.Errorf("Error occurred while closing SSH connection with %s", c.node.IP)
		return
	}
	log.Debugf("Connection closed: %s", c.node.IP)
}
