package kube

import (
	"github.com/invopop/yaml"
	"github.com/pkg/errors"
	kubeApi "k8s.io/client-go/tools/clientcmd/api"
)

type KubeConfig struct {
	Kind           string               `json:"kind,omitempty"`
	APIVersion     string               `json:"apiVersion,omitempty"`
	Preferences    *kubeApi.Preferences `json:"preferences"`
	Clusters       []ClusterMapItem     `json:"clusters"`
	AuthInfos      []AuthInfoMapItem    `json:"users"`
	Contexts       []ContextMapItem     `json:"contexts"`
	CurrentContext string               `json:"current-context"`
}

type ClusterMapItem struct {
	Key   string          `json:"name,omitempty"`
	Value kubeApi.Cluster `json:"cluster,omitempty"`
}

type AuthInfoMapItem struct {
	Key   string           `json:"name,omitempty"`
	Value kubeApi.AuthInfo `json:"user,omitempty"`
}

type ContextMapItem struct {
	Key   string          `json:"name,omitempty"`
	Value kubeApi.Context `json:"context,omitempty"`
}

func ParseKubeConfig(data []byte) (*KubeConfig, error) {
	var kubeConf *KubeConfig
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, "converting kubeconfig to json")
	}
	if err = yaml.Unmarshal(jsonData, &kubeConf); err != nil {
		return nil, errors.Wrap(err, "parsing kubeconfig")
	}
	if kubeConf == nil || len(kubeConf.Clusters) == 0 {
		return nil, errors.New("kubeconfig has no clusters")
	}
	return kubeConf, nil
}

// Server returns the API server url of the current context, falling back to the first cluster.
func (k *KubeConfig) Server() string {
	clusterName := ""
	for _, c := range k.Contexts {
		if c.Key == k.CurrentContext {
			clusterName = c.Value.Cluster
			break
		}
	}
	for _, c := range k.Clusters {
		if c.Key == clusterName {
			return c.Value.Server
		}
	}
	return k.Clusters[0].Value.Server
}
