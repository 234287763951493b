package database

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aetherdb/aetherdb/internal/config"
)

// manifestFile is the name of the per-collection configuration file,
// written under {db_root}/collections/{name}/. The collection's WAL
// segments and SSTs live elsewhere, under {db_root}/wal/ and
// {db_root}/data/{name}/.
const manifestFile = "collection.yaml"

// manifestDoc mirrors config.CollectionConfig's shape for YAML
// round-tripping; IndexConfig is flattened since config.IndexType isn't
// itself a yaml-friendly scalar.
type manifestDoc struct {
	Name                  string            `yaml:"name"`
	Dimension             int               `yaml:"dimension"`
	Distance              string            `yaml:"distance"`
	Index                 string            `yaml:"index"`
	IndexParams           map[string]string `yaml:"index_params"`
	MemtableSizeThreshold int               `yaml:"memtable_size_threshold"`
}

func writeManifest(dir string, cfg config.CollectionConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	doc := manifestDoc{
		Name:                  cfg.Name,
		Dimension:             cfg.Dimension,
		Distance:              cfg.Distance,
		Index:                 cfg.Index.Type.String(),
		IndexParams:           cfg.Index.Params,
		MemtableSizeThreshold: cfg.MemtableSizeThreshold,
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), out, 0o644)
}

func readManifest(dir string) (config.CollectionConfig, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return config.CollectionConfig{}, err
	}
	var doc manifestDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return config.CollectionConfig{}, err
	}
	indexCfg, err := config.NewIndexConfig(doc.Index, doc.IndexParams)
	if err != nil {
		return config.CollectionConfig{}, err
	}
	return config.CollectionConfig{
		Name:                  doc.Name,
		Dimension:             doc.Dimension,
		Distance:              doc.Distance,
		Index:                 indexCfg,
		MemtableSizeThreshold: doc.MemtableSizeThreshold,
	}, nil
}
