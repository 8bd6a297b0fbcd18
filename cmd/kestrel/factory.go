package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/mfern/kestrel/internal/agent"
	"github.com/mfern/kestrel/internal/auth"
	"github.com/mfern/kestrel/internal/config"
	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/render"
	"github.com/mfern/kestrel/internal/storage"
)

// env bundles the wired application pieces the commands share.
type env struct {
	paths    *config.Paths
	store    *storage.Storage
	auth     *auth.Store
	agent    *agent.Agent
	settings domain.Settings
}

func buildEnv() (*env, error) {
	paths := config.GetPaths()
	if err := config.EnsureDir(paths.Home); err != nil {
		return nil, fmt.Errorf("create home dir: %w", err)
	}

	store, err := storage.New(paths.Data)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	authStore := auth.NewStore(paths.AuthFile)

	settings, err := config.LoadSettings(paths.SettingsFile)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return &env{
		paths:    paths,
		store:    store,
		auth:     authStore,
		agent:    agent.New(store, authStore),
		settings: settings,
	}, nil
}

func (e *env) close() {
	e.store.Close()
}

// newRenderer enables pretty output only when stdout is a terminal.
func newRenderer() *render.Renderer {
	return render.New(term.IsTerminal(int(os.Stdout.Fd())))
}
