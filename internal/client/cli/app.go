package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/taskvault/taskvault/internal/client/api"
	"github.com/taskvault/taskvault/internal/client/config"
)

type App struct {
	config   *config.Config
	client   *api.Client
	userName string
	reader   *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := api.New(c.ServerBaseURL)
	if err != nil {
		return nil, err
	}

	return &App{config: c, client: apiClient, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}
