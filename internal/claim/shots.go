package claim

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// saveFailureShot captures the page into ShotDir so selector drift can
// be diagnosed after the fact. Never fails the flow.
func saveFailureShot(ctx context.Context, drv Driver, opts Options, log *logrus.Entry, step string) {
	if opts.ShotDir == "" {
		return
	}
	png, err := drv.Screenshot(ctx)
	if err != nil {
		log.WithError(err).Debug("could not capture failure screenshot")
		return
	}
	fs := opts.ShotFs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(opts.ShotDir, 0o755); err != nil {
		log.WithError(err).Debug("could not create screenshot dir")
		return
	}
	name := fmt.Sprintf("%s-%s.png", step, time.Now().Format("20060102-150405"))
	path := filepath.Join(opts.ShotDir, name)
	if err := afero.WriteFile(fs, path, png, 0o644); err != nil {
		log.WithError(err).Debug("could not write failure screenshot")
		return
	}
	log.WithField("path", path).Warn("failure screenshot saved")
}
