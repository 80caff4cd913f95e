package main

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"spanmark/internal/config"
	"spanmark/internal/workspace"
)

var configPath string

// project is the loaded config with its schema and logger. Relative paths in
// the config resolve against the config file's directory.
type project struct {
	cfg    *config.ProjectConfig
	schema *config.Schema
	log    *zap.Logger
	root   string
}

func loadProject() (*project, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	p := &project{cfg: cfg, log: log, root: filepath.Dir(configPath)}
	if cfg.Schema != "" {
		schema, err := config.LoadSchema(p.path(cfg.Schema))
		if err != nil {
			return nil, err
		}
		p.schema = schema
	}
	return p, nil
}

func (p *project) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.root, rel)
}

func (p *project) close() {
	_ = p.log.Sync()
}

func (p *project) workspace() (*workspace.Workspace, error) {
	ws, err := workspace.Open(p.path(p.cfg.Documents), workspace.Options{
		Autosave: p.cfg.Autosave,
		Logger:   p.log,
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// session opens the workspace with name as the active document.
func (p *project) session(name string) (*workspace.Session, error) {
	ws, err := p.workspace()
	if err != nil {
		return nil, err
	}
	s := workspace.NewSession(ws, p.schema, p.log)
	if _, err := s.Open(name); err != nil {
		return nil, err
	}
	return s, nil
}

// save writes the active document unless autosave already did.
func save(s *workspace.Session) error {
	if err := s.Workspace().SaveActive(); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}
