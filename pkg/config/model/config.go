package model

import (
	"fmt"
	"net"
	"reflect"
	"strings"
	"time"

	"com.github.tunahansezen/kubeboot/pkg/constant"
	"com.github.tunahansezen/kubeboot/pkg/util"
	"github.com/hashicorp/go-version"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Kubernetes Kubernetes `yaml:"kubernetes"`
	Calico     Calico     `yaml:"calico"`
	APIWait    APIWait    `yaml:"apiWait"`
	Prompt     Prompt     `yaml:"prompt"`
	Service    Service    `yaml:"service"`
	Firewall   Firewall   `yaml:"firewall"`
	Paths      Paths      `yaml:"paths"`
	Join       Join       `yaml:"join"`
	Metrics    Metrics    `yaml:"metrics"`
	Remote     Remote     `yaml:"remote"`
}

type Kubernetes struct {
	Version              string `yaml:"version"`
	PodNetworkCidr       string `yaml:"podNetworkCidr"`
	AdvertiseAddress     net.IP `yaml:"advertiseAddress"`
	SchedulePodsOnMaster bool   `yaml:"schedulePodsOnMaster"`
}

type Calico struct {
	Version     string        `yaml:"version"`
	Url         string        `yaml:"url"`
	Attempts    int           `yaml:"attempts"`
	RetryDelay  time.Duration `yaml:"retryDelay"`
	SettleDelay time.Duration `yaml:"settleDelay"`
}

type APIWait struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

type Prompt struct {
	MaxAttempts   int           `yaml:"maxAttempts"`
	MaxEmptyReads int           `yaml:"maxEmptyReads"`
	Timeout       time.Duration `yaml:"timeout"`
	ConfirmWord   string        `yaml:"confirmWord"`
}

type Service struct {
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retryDelay"`
}

type Firewall struct {
	Enabled bool `yaml:"enabled"`
}

type Paths struct {
	ArtifactsDir string `yaml:"artifactsDir"`
}

type Join struct {
	Command string `yaml:"command"`
}

type Metrics struct {
	Textfile string `yaml:"textfile"`
}

type Remote struct {
	Host           net.IP `yaml:"host"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	PrivateKeyPath string `yaml:"privateKeyPath"`
}

// RepoMinor returns the "<major>.<minor>" of the configured kubernetes version, as used by pkgs.k8s.io.
func (k Kubernetes) RepoMinor() string {
	v, err := version.NewVersion(k.Version)
	if err != nil || len(v.Segments()) < 2 {
		return util.GetMajorVersion(k.Version)
	}
	return fmt.Sprintf("%d.%d", v.Segments()[0], v.Segments()[1])
}

// ResolvedVersion returns the calico version, choosing one by kubernetes version when set to auto.
func (c Calico) ResolvedVersion(kubeVersion string) string {
	if c.Version != constant.DefaultCalicoVersion && c.Version != "" {
		return c.Version
	}
	kubeSemVer, err := version.NewVersion(kubeVersion)
	if err != nil {
		return "3.28.0"
	}
	kube130Ver, _ := version.NewVersion("1.30")
	kube128Ver, _ := version.NewVersion("1.28")
	kube127Ver, _ := version.NewVersion("1.27")
	if kubeSemVer.GreaterThanOrEqual(kube130Ver) {
		return "3.28.0"
	} else if kubeSemVer.GreaterThanOrEqual(kube128Ver) {
		return "3.27.3"
	} else if kubeSemVer.GreaterThanOrEqual(kube127Ver) {
		return "3.27.2"
	}
	return "3.26.4"
}

// ExactUrl returns the manifest url with {version} replaced.
func (c Calico) ExactUrl(kubeVersion string) string {
	url := c.Url
	if url == "" || url == "default" {
		url = constant.DefaultCalicoUrl
	}
	return strings.ReplaceAll(url, "{version}", c.ResolvedVersion(kubeVersion))
}

func ConfigViperDecodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			// net.IP is a slice, so it has to be decoded before StringToSlice sees it
			func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
				if f.Kind() != reflect.String || t != reflect.TypeOf(net.IP{}) {
					return data, nil
				}
				s := strings.TrimSpace(data.(string))
				if s == "" {
					return net.IP(nil), nil
				}
				ip := net.ParseIP(s)
				if ip == nil {
					return nil, errors.Errorf("invalid IP address %q", s)
				}
				return ip, nil
			},
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
