package config

import (
	"bytes"
	"net"
	"strings"

	"com.github.tunahansezen/kubeboot/pkg/config/model"
	"com.github.tunahansezen/kubeboot/pkg/constant"
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("kubernetes.version", constant.DefaultKubeVersion)
	v.SetDefault("kubernetes.podNetworkCidr", constant.DefaultPodNetworkCidr)
	v.SetDefault("kubernetes.advertiseAddress", "")
	v.SetDefault("kubernetes.schedulePodsOnMaster", false)
	v.SetDefault("calico.version", constant.DefaultCalicoVersion)
	v.SetDefault("calico.url", constant.DefaultCalicoUrl)
	v.SetDefault("calico.attempts", constant.DefaultCalicoAttempts)
	v.SetDefault("calico.retryDelay", constant.DefaultCalicoRetryDelay.String())
	v.SetDefault("calico.settleDelay", constant.DefaultCalicoSettleDelay.String())
	v.SetDefault("apiWait.attempts", constant.DefaultAPIWaitAttempts)
	v.SetDefault("apiWait.interval", constant.DefaultAPIWaitInterval.String())
	v.SetDefault("prompt.maxAttempts", constant.DefaultPromptAttempts)
	v.SetDefault("prompt.maxEmptyReads", constant.DefaultPromptEmptyReads)
	v.SetDefault("prompt.timeout", constant.DefaultPromptTimeout.String())
	v.SetDefault("prompt.confirmWord", constant.DefaultConfirmWord)
	v.SetDefault("service.attempts", constant.DefaultServiceAttempts)
	v.SetDefault("service.retryDelay", constant.DefaultServiceRetryDelay.String())
	v.SetDefault("firewall.enabled", true)
	v.SetDefault("paths.artifactsDir", constant.DefaultArtifactsDir)
	v.SetDefault("join.command", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("remote.host", "")
	v.SetDefault("remote.user", constant.DefaultRemoteUser)
	v.SetDefault("remote.password", "")
	v.SetDefault("remote.privateKeyPath", "")
}

// newViper reads cfgFile from fs when it exists. A missing default file is not an error, a
// missing explicit file is.
func newViper(fs afero.Fs, cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType(constant.DefaultCfgType)
	v.SetEnvPrefix(constant.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	explicit := cfgFile != ""
	if !explicit {
		cfgFile = constant.DefaultCfgFile
	}
	exists, err := afero.Exists(fs, cfgFile)
	if err != nil {
		return nil, errors.Wrapf(err, "checking config file %s", cfgFile)
	}
	if !exists {
		if explicit {
			return nil, errors.Errorf("config file %s not found", cfgFile)
		}
		log.Debugf("No config file at %s, using defaults", cfgFile)
		return v, nil
	}
	v.SetConfigFile(cfgFile)
	if err = v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", cfgFile)
	}
	log.Debugf("Using config file: %s", cfgFile)
	return v, nil
}

// Load resolves the configuration from defaults, the config file and KUBEBOOT_* variables.
func Load(fs afero.Fs, cfgFile string) (model.Config, error) {
	var cfg model.Config
	v, err := newViper(fs, cfgFile)
	if err != nil {
		return cfg, err
	}
	if err = v.Unmarshal(&cfg, model.ConfigViperDecodeHook()); err != nil {
		return cfg, errors.Wrap(err, "error occurred while decoding config")
	}
	return cfg, Validate(cfg)
}

// Validate rejects configurations the workflow cannot run with.
func Validate(cfg model.Config) error {
	kubeSemVer, err := version.NewVersion(cfg.Kubernetes.Version)
	if err != nil {
		return errors.Wrapf(err, "invalid kubernetes version \"%s\"", cfg.Kubernetes.Version)
	}
	minKubeVer, _ := version.NewVersion(constant.MinKubeVersion)
	if kubeSemVer.LessThan(minKubeVer) {
		return errors.Errorf("minimum supported kubernetes version is \"%s\"", minKubeVer)
	}
	if _, _, err = net.ParseCIDR(cfg.Kubernetes.PodNetworkCidr); err != nil {
		return errors.Wrapf(err, "invalid pod network cidr \"%s\"", cfg.Kubernetes.PodNetworkCidr)
	}
	if cfg.Calico.Attempts < 1 || cfg.APIWait.Attempts < 1 || cfg.Service.Attempts < 1 {
		return errors.New("attempt counts must be at least 1")
	}
	if cfg.Prompt.MaxAttempts < 1 || cfg.Prompt.MaxEmptyReads < 1 {
		return errors.New("prompt limits must be at least 1")
	}
	if cfg.Prompt.ConfirmWord == "" {
		return errors.New("prompt.confirmWord must not be empty")
	}
	if cfg.Prompt.Timeout < 0 {
		return errors.New("prompt.timeout must not be negative")
	}
	return nil
}

// View renders the resolved settings as YAML with secrets masked.
func View(fs afero.Fs, cfgFile string) ([]byte, error) {
	v, err := newViper(fs, cfgFile)
	if err != nil {
		return nil, err
	}
	settings := v.AllSettings()
	if remote, ok := settings["remote"].(map[string]interface{}); ok {
		if pass, _ := remote["password"].(string); pass != "" {
			remote["password"] = "********"
		}
	}
	var b bytes.Buffer
	yamlEncoder := yaml.NewEncoder(&b)
	yamlEncoder.SetIndent(2)
	if err = yamlEncoder.Encode(settings); err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	return b.Bytes(), nil
}
