package files

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"ventaperdida/internal/config"
)

// NewStore builds the Store selected by cfg.Backend.
func NewStore(ctx context.Context, cfg config.SourcesConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendLocal, "":
		return NewLocalStore(cfg.Root), nil
	case config.BackendGitHub:
		return NewGitHubStore(cfg.Root, cfg.Ref, cfg.Token, cfg.FetchTimeout), nil
	case config.BackendDrive:
		return NewDriveStore(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	case config.BackendGCS:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		return NewGCSStore(ctx, cfg.Root, opts...)
	default:
		return nil, fmt.Errorf("unknown source backend %q", cfg.Backend)
	}
}
