package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	paramCommand = "command"
	outputsField = "outputs"
	yamlIndent   = 2

	DefaultTimeout = 60 * time.Second
)

type Config struct {
	Command string            `mapstructure:"command"`
	Mapping map[string]string `mapstructure:"mapping"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

// Plugin runs an external executable as an impact plugin. Inputs are written to its stdin as a
// YAML document; its stdout is read back as one or more YAML documents carrying an outputs field.
type Plugin struct {
	config Config
}

func NewPlugin(cfg Config) (*Plugin, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, fmt.Errorf("%w: missing %s parameter", domain.ErrConfiguration, paramCommand)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Plugin{config: cfg}, nil
}

// SplitCommand splits a command line on spaces into the executable and its arguments.
// Quoting is not supported.
func SplitCommand(command string) (string, []string) {
	parts := strings.Split(command, " ")
	return parts[0], parts[1:]
}

// Execute sends the batch to the plugin process and returns its outputs in emitted order.
func (p *Plugin) Execute(ctx context.Context, inputs []domain.PluginRecord) ([]domain.PluginRecord, error) {
	batch := make([]domain.PluginRecord, len(inputs))
	copy(batch, inputs)
	if len(batch) > 0 {
		first := batch[0].Clone()
		first[paramCommand] = p.config.Command
		batch[0] = first
	}

	var stdin bytes.Buffer
	enc := yaml.NewEncoder(&stdin)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(batch); err != nil {
		return nil, p.fail(-1, "", fmt.Errorf("failed to encode inputs: %w", err))
	}
	if err := enc.Close(); err != nil {
		return nil, p.fail(-1, "", fmt.Errorf("failed to encode inputs: %w", err))
	}

	stdout, err := p.run(ctx, &stdin)
	if err != nil {
		return nil, err
	}

	outputs, err := parseOutputs(stdout)
	if err != nil {
		return nil, p.fail(0, "", err)
	}

	mapped := make([]domain.PluginRecord, 0, len(outputs))
	for _, out := range outputs {
		mapped = append(mapped, MapOutput(out, p.config.Mapping))
	}
	return mapped, nil
}

func (p *Plugin) run(ctx context.Context, stdin io.Reader) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	executable, args := SplitCommand(p.config.Command)
	cmd := exec.CommandContext(ctx, executable, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	logger.Debug().Str("executable", executable).Strs("args", args).Msg("spawning plugin")

	started := time.Now()
	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, p.fail(-1, stderr.String(), fmt.Errorf("plugin did not finish: %w", ctxErr))
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, p.fail(exitErr.ExitCode(), stderr.String(), err)
		}
		return nil, p.fail(-1, stderr.String(), err)
	}

	logger.Debug().
		Str("executable", executable).
		Dur("elapsed", time.Since(started)).
		Int("stdout_bytes", stdout.Len()).
		Msg("plugin finished")

	return stdout.Bytes(), nil
}

func (p *Plugin) fail(code int, stderr string, err error) error {
	return &domain.ProcessError{
		Command:  p.config.Command,
		ExitCode: code,
		Stderr:   strings.TrimSpace(stderr),
		Err:      err,
	}
}

// parseOutputs reads every YAML document from data. A sequence document contributes its items,
// a mapping with an outputs field contributes the items of that field, and any other mapping is an
// output record itself. Items are flattened one level.
func parseOutputs(data []byte) ([]domain.PluginRecord, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	records := []domain.PluginRecord{}
	for {
		var doc interface{}
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse plugin output: %w", err)
		}

		var items []interface{}
		switch v := doc.(type) {
		case nil:
			continue
		case []interface{}:
			items = v
		case map[string]interface{}:
			raw, ok := v[outputsField]
			if !ok {
				items = []interface{}{v}
				break
			}
			if raw == nil {
				continue
			}
			seq, ok := raw.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%s must be a sequence, got %T", outputsField, raw)
			}
			items = seq
		default:
			return nil, fmt.Errorf("plugin output document must be a sequence or mapping, got %T", doc)
		}

		records, err = appendFlattened(records, items)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func appendFlattened(records []domain.PluginRecord, items []interface{}) ([]domain.PluginRecord, error) {
	for _, item := range items {
		if nested, ok := item.([]interface{}); ok {
			for _, n := range nested {
				rec, err := toRecord(n)
				if err != nil {
					return nil, err
				}
				records = append(records, rec)
			}
			continue
		}
		rec, err := toRecord(item)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func toRecord(v interface{}) (domain.PluginRecord, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("output record must be a mapping, got %T", v)
	}
	return domain.PluginRecord(m), nil
}

// MapOutput renames the record's fields through mapping. Fields without a mapping keep their name.
func MapOutput(record domain.PluginRecord, mapping map[string]string) domain.PluginRecord {
	if len(mapping) == 0 {
		return record
	}
	out := make(domain.PluginRecord, len(record))
	for k, v := range record {
		if to, ok := mapping[k]; ok && to != "" {
			out[to] = v
			continue
		}
		out[k] = v
	}
	return out
}
