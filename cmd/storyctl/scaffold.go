package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"admission-stories/pkg/registry"
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold <activity-id>",
	Short: "Generate a worker skeleton from its registry entry",
	Long: `Scaffold writes config.go, models.go, handler.go and handler_test.go for a
registry activity under internal/workers/<category>/<id>/. Input fields come from
the activity's inputSchema. Existing files are never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runScaffold,
}

func init() {
	scaffoldCmd.Flags().String("registry", "configs/activity-registry.json", "path to the registry file")
	scaffoldCmd.Flags().String("output", "internal/workers", "root directory for generated workers")
	rootCmd.AddCommand(scaffoldCmd)
}

type workerData struct {
	Name        string
	PackageName string
	Dir         string
	TaskType    string
	Description string
	Fields      []field
}

type field struct {
	Name    string
	GoType  string
	JSONKey string
	Comment string
}

func runScaffold(cmd *cobra.Command, args []string) error {
	regPath, _ := cmd.Flags().GetString("registry")
	outRoot, _ := cmd.Flags().GetString("output")

	reg, _, err := registry.LoadRegistry(regPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == args[0] {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity %q not found in %s", args[0], regPath)
	}

	data := workerData{
		Name:        activity.DisplayName,
		PackageName: strings.ReplaceAll(activity.ID, "-", ""),
		Dir:         filepath.ToSlash(filepath.Join(outRoot, strings.ToLower(activity.Category), activity.ID)),
		TaskType:    activity.TaskType,
		Description: activity.Description,
		Fields:      schemaFields(activity.InputSchema),
	}

	written, err := renderWorker(data)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "generated %s\n", path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "register %s in cmd/story-service and add workers.%s to configs/config.yaml\n",
		data.PackageName, data.TaskType)
	return nil
}

func renderWorker(data workerData) ([]string, error) {
	if err := os.MkdirAll(data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	files := []struct {
		name string
		tmpl string
	}{
		{"config.go", configTemplate},
		{"models.go", modelsTemplate},
		{"handler.go", handlerTemplate},
		{"handler_test.go", testTemplate},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(data.Dir, f.name)
		if _, err := os.Stat(path); err == nil {
			return written, fmt.Errorf("%s already exists", path)
		}

		tmpl, err := template.New(f.name).Parse(f.tmpl)
		if err != nil {
			return written, fmt.Errorf("parse template %s: %w", f.name, err)
		}
		out, err := os.Create(path)
		if err != nil {
			return written, err
		}
		err = tmpl.Execute(out, data)
		out.Close()
		if err != nil {
			return written, fmt.Errorf("render %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// schemaFields turns the top-level properties of a JSON schema into struct
// fields, sorted by key.
func schemaFields(schema map[string]interface{}) []field {
	props, _ := schema["properties"].(map[string]interface{})
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]field, 0, len(keys))
	for _, k := range keys {
		details, _ := props[k].(map[string]interface{})
		desc, _ := details["description"].(string)
		fields = append(fields, field{
			Name:    exportedName(k),
			GoType:  goTypeFromJSONType(details["type"]),
			JSONKey: k,
			Comment: desc,
		})
	}
	return fields
}

func goTypeFromJSONType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "integer":
		return "int64"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// exportedName upper-cases the first letter and a trailing "Id".
func exportedName(key string) string {
	if key == "" {
		return key
	}
	name := strings.ToUpper(key[:1]) + key[1:]
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	return name
}

const configTemplate = `// {{ .Dir }}/config.go
package {{ .PackageName }}

import (
	"time"

	"admission-stories/internal/common/config"
)

type Config struct {
	Enabled bool
	Timeout time.Duration
}

func LoadConfig(app *config.Config) *Config {
	wc := config.GetWorkerConfig(app, TaskType)
	return &Config{
		Enabled: wc.Enabled,
		Timeout: config.GetDuration(wc.Timeout),
	}
}
`

const modelsTemplate = `// {{ .Dir }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .Fields }}
	{{ .Name }} {{ .GoType }} ` + "`json:\"{{ .JSONKey }}\"`" + `{{ if .Comment }} // {{ .Comment }}{{ end }}
{{- end }}
}

type Output struct {
	Result string ` + "`json:\"result\"`" + `
}
`

const handlerTemplate = `// {{ .Dir }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"

	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "{{ .TaskType }}"
)
{{ if .Description }}
// Handler runs {{ .TaskType }} jobs: {{ .Description }}
{{- end }}
type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return h.errorHandler.HandleJobError(ctx, client, job,
			errors.NewBusinessRuleError("Invalid {{ .TaskType }} input", err.Error()))
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		return h.errorHandler.HandleJobError(ctx, client, job, err)
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return &Output{Result: "ok"}, nil
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"
	"time"

	"admission-stories/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(&Config{Enabled: true, Timeout: 5 * time.Second}, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Result)
}
`
