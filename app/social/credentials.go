package social

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type credentialsFile struct {
	Credentials []Credential `yaml:"credentials"`
}

// LoadCredentials reads the credential pool definition from a YAML file.
func LoadCredentials(path string) ([]Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials YAML: %w", err)
	}

	for i, cred := range file.Credentials {
		if cred.Username == "" {
			return nil, fmt.Errorf("credential %d: username is required", i)
		}
		if cred.Token == "" {
			return nil, fmt.Errorf("credential %d (%s): token is required", i, cred.Username)
		}
	}

	return file.Credentials, nil
}
