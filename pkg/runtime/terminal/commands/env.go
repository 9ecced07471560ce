package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/de-tools/impact-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/impact-atlas/pkg/services/config"
	"github.com/de-tools/impact-atlas/pkg/services/estimate"
	"github.com/de-tools/impact-atlas/pkg/store/objects"
	"gopkg.in/yaml.v3"
)

// Env carries what every command needs: the loaded settings, a way to build the runtime and the reporter.
type Env struct {
	Settings  func() (*config.Settings, error)
	Bootstrap func(ctx context.Context, settings *config.Settings, withSink bool) (*estimate.Runtime, error)
	Uploader  func(ctx context.Context, settings objects.Settings) (objects.Uploader, error)
	Reporter  *export.Reporter
	Input     io.Reader
	Now       func() time.Time
}

func (e *Env) runtime(ctx context.Context, withSink bool) (*estimate.Runtime, *config.Settings, error) {
	settings, err := e.Settings()
	if err != nil {
		return nil, nil, err
	}
	rt, err := e.Bootstrap(ctx, settings, withSink)
	if err != nil {
		return nil, nil, err
	}
	return rt, settings, nil
}

// readDocument decodes a YAML (or JSON) document from path, or from the env input when path is "-".
func (e *Env) readDocument(path string) (interface{}, error) {
	var r io.Reader
	if path == "-" {
		r = e.Input
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var doc interface{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, path)
		}
		return nil, fmt.Errorf("%w: failed to decode %s: %v", domain.ErrInvalidInput, path, err)
	}
	return doc, nil
}

// emit prints the report and uploads the same rendering when upload is set.
func (e *Env) emit(ctx context.Context, report *domain.Report, settings *config.Settings, upload bool, name string) error {
	if err := e.Reporter.Handle(report); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	if !upload {
		return nil
	}

	body, err := e.Reporter.Render(report)
	if err != nil {
		return err
	}

	uploader, err := e.Uploader(ctx, objects.Settings{
		Bucket:  settings.Export.Bucket,
		Prefix:  settings.Export.Prefix,
		Profile: settings.Export.Profile,
		Region:  settings.Export.Region,
	})
	if err != nil {
		return fmt.Errorf("failed to create uploader: %w", err)
	}

	format := e.Reporter.Format()
	key := fmt.Sprintf("%s-%s.%s", name, report.GeneratedAt.UTC().Format("20060102T150405Z"), format.Extension())
	_, err = uploader.Upload(ctx, key, format.ContentType(), body)
	return err
}
