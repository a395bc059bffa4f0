package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile читает YAML-файл поверх базовой конфигурации.
//
// Поля, отсутствующие в файле, сохраняют значения из base.
// Пример файла:
//
//	service: engrafo
//	source: tcp://131.188.48.209:51695
//	sink: tcp://131.188.48.209:51696
//	pool_size: 16
//	cooldown: 60s
//	converter:
//	  image: arxivvanity/engrafo:2.0.0
//	  memory: 4g
func LoadFile(path string, base WorkerConfig) (WorkerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WorkerConfig{}, fmt.Errorf("%w: read %s: %v", ErrConfigFile, path, err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WorkerConfig{}, fmt.Errorf("%w: parse %s: %v", ErrConfigFile, path, err)
	}

	return cfg, nil
}

// SaveFile сохраняет конфигурацию в YAML.
func SaveFile(path string, cfg WorkerConfig) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrConfigFile, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrConfigFile, path, err)
	}

	return nil
}
