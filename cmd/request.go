package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	httpclient "github.com/vedsharma/pingforge/internal/http"
	"github.com/vedsharma/pingforge/internal/model"
	"github.com/vedsharma/pingforge/internal/storage"
	"github.com/vedsharma/pingforge/internal/vars"
)

var (
	headers          []string
	params           []string
	data             string
	bodyType         string
	bearerToken      string
	basicAuth        string
	apiKey           string
	envName          string
	noHistory        bool
	saveToCollection string
	dryRun           bool
)

func init() {
	for _, m := range model.Methods {
		method := m
		lower := strings.ToLower(string(method))
		c := &cobra.Command{
			Use:   lower + " <url>",
			Short: fmt.Sprintf("Send a %s request", method),
			Long: fmt.Sprintf(`Send a %s request.

{{name}} tokens in the URL, headers, params, auth and body are replaced with
the enabled variables of the selected environment (or -e). Unknown tokens
are sent as written.`, method),
			Args: cobra.ExactArgs(1),
			Run:  runRequest(method),
		}
		addRequestFlags(c)
		rootCmd.AddCommand(c)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	addModelFlags(cmd)
	cmd.Flags().StringVarP(&envName, "env", "e", "", "Environment to resolve variables from (default: the selected one)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")
	cmd.Flags().StringVarP(&saveToCollection, "collection", "c", "", "Save to collection")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved request without sending it")
}

// addModelFlags registers the flags that describe a request.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header 'Key: Value' (can be used multiple times)")
	cmd.Flags().StringArrayVarP(&params, "query", "q", []string{}, "Add query parameter key=value (can be used multiple times)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body (string or @filename)")
	cmd.Flags().StringVar(&bodyType, "body-type", "", "Body type: json, form or text (default: json when the body parses, else text)")
	cmd.Flags().StringVar(&bearerToken, "bearer", "", "Bearer token")
	cmd.Flags().StringVar(&basicAuth, "basic", "", "Basic auth as user:pass")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key header as key=value")
}

func runRequest(method model.Method) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")

		store := openStore()
		defer store.Close()

		body := bodyFromFlag()
		req, err := requestFromFlags(method, resolveAlias(store, args[0]), body)
		exitOnError("Invalid request", err)

		env := activeEnvironment(store, envName)
		resolver := vars.NewResolver(env)

		if dryRun {
			compiled, err := httpclient.Build(req, resolver)
			exitOnError("Invalid request", err)
			format.PrintCompiledRequest(compiled)
			format.PrintMissingVariables(missingIn(compiled))
			return
		}

		if !noHistory {
			warnIfSensitiveBody(body)
		}

		ctx, cancel := signalContext()
		defer cancel()

		compiled, resp, err := newHTTPClient().Send(ctx, req, resolver)
		exitOnError("Invalid request", err)
		format.PrintMissingVariables(missingIn(compiled))

		format.PrintResponse(resp, verbose)

		if !noHistory {
			saveToHistory(store, compiled, req.Auth, resp)
		}
		if saveToCollection != "" {
			saveRequestToCollection(store, saveToCollection, req)
		}
	}
}

// bodyFromFlag returns -d, reading the file for @filename.
func bodyFromFlag() string {
	if !strings.HasPrefix(data, "@") {
		return data
	}
	content, err := readBodyFromFile(strings.TrimPrefix(data, "@"))
	exitOnError("Failed to read file", err)
	return content
}

// requestFromFlags assembles the still-templated request model.
func requestFromFlags(method model.Method, url, body string) (model.RequestModel, error) {
	req := model.RequestModel{Method: method, URL: url}

	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok {
			return req, fmt.Errorf("header %q must be 'Key: Value'", h)
		}
		req.Headers = append(req.Headers, model.KVPair{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v), Enabled: true})
	}
	for _, p := range params {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return req, fmt.Errorf("query parameter %q must be key=value", p)
		}
		req.Params = append(req.Params, model.KVPair{Key: k, Value: v, Enabled: true})
	}

	auth, err := authFromFlags()
	if err != nil {
		return req, err
	}
	req.Auth = auth

	if body != "" {
		bt := model.BodyText
		if bodyType != "" {
			parsed, ok := model.ParseBodyType(bodyType)
			if !ok {
				return req, fmt.Errorf("unknown body type %q", bodyType)
			}
			bt = parsed
		} else if json.Valid([]byte(body)) {
			bt = model.BodyJSON
		}
		req.Body = model.BodySpec{Type: bt, Content: body}
	}
	return req, nil
}

func authFromFlags() (model.AuthSpec, error) {
	set := 0
	for _, v := range []string{bearerToken, basicAuth, apiKey} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return model.AuthSpec{}, errors.New("use only one of --bearer, --basic and --api-key")
	}

	switch {
	case bearerToken != "":
		return model.AuthSpec{Type: model.AuthBearer, Token: bearerToken}, nil
	case basicAuth != "":
		user, pass, _ := strings.Cut(basicAuth, ":")
		return model.AuthSpec{Type: model.AuthBasic, Username: user, Password: pass}, nil
	case apiKey != "":
		k, v, ok := strings.Cut(apiKey, "=")
		if !ok {
			return model.AuthSpec{}, fmt.Errorf("--api-key %q must be key=value", apiKey)
		}
		return model.AuthSpec{Type: model.AuthAPIKey, Key: k, Value: v}, nil
	}
	return model.AuthSpec{Type: model.AuthNone}, nil
}

// activeEnvironment returns the environment named name, or the selected one
// when name is empty. No selection means no variables.
func activeEnvironment(store *storage.SQLiteStorage, name string) *model.Environment {
	if name != "" {
		return mustEnvironment(store, name)
	}

	id, err := settingsFile().SelectedEnvironment()
	if err != nil {
		logger.Warn("could not read selected environment", "error", err)
		return nil
	}
	env, err := store.GetEnvironmentByID(id)
	exitOnError("Failed to load environment", err)
	if env == nil && id != "" {
		logger.Warn("selected environment no longer exists", "id", id)
	}
	return env
}

func missingIn(c *model.CompiledRequest) []string {
	texts := []string{c.URL, string(c.Body)}
	for k, v := range c.Headers {
		texts = append(texts, k, v)
	}
	return vars.Missing(texts...)
}

func saveToHistory(store *storage.SQLiteStorage, c *model.CompiledRequest, auth model.AuthSpec, resp model.ExecutedResponse) {
	var extra []string
	if auth.Type == model.AuthAPIKey {
		extra = append(extra, auth.Key)
	}

	entry := model.HistoryEntry{
		ID:        uuid.New().String()[:8],
		Timestamp: time.Now(),
		Method:    string(c.Method),
		URL:       c.URL,
		Headers:   storage.RedactHeaders(c.Headers, extra...),
		Body:      string(c.Body),
		Response:  &resp,
	}

	if err := store.AddToHistory(entry); err != nil {
		logger.Warn("could not save history", "error", err)
	}
}

func saveRequestToCollection(store *storage.SQLiteStorage, collectionName string, req model.RequestModel) {
	saved := model.SavedRequest{
		Name:    fmt.Sprintf("%s %s", req.Method, req.URL),
		Request: req,
	}
	if _, err := store.AddToCollection(collectionName, saved); err != nil {
		format.PrintError(fmt.Sprintf("Failed to save to collection: %v", err))
		return
	}
	format.PrintSuccess(fmt.Sprintf("Saved to collection '%s'", collectionName))
}

// resolveAlias expands 'alias/path' into the alias base URL. Full URLs and
// templated URLs are returned as-is.
func resolveAlias(store *storage.SQLiteStorage, url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "{{") {
		return url
	}

	aliasName, path, _ := strings.Cut(url, "/")
	baseURL, exists, err := store.GetAlias(aliasName)
	if err != nil || !exists {
		return url
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return baseURL
	}
	return baseURL + "/" + path
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	if !strings.HasPrefix(cleanPath, wd+string(filepath.Separator)) && cleanPath != wd {
		return "", fmt.Errorf("access denied: file must be within current directory")
	}

	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else if !strings.HasPrefix(realPath, wd+string(filepath.Separator)) && realPath != wd {
		return "", fmt.Errorf("access denied: symlink target must be within current directory")
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// sensitiveBodyPatterns suggest credentials in a request body
var sensitiveBodyPatterns = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"private_key", "privatekey",
	"credit_card", "creditcard", "card_number",
	"access_token", "refresh_token",
	"client_secret",
}

// warnIfSensitiveBody warns that the body will be stored in history
func warnIfSensitiveBody(body string) {
	if looksSensitive(body) {
		format.PrintWarning("Request body may contain sensitive data (e.g., passwords, tokens). This will be stored in history.")
		format.PrintInfo("  Use --no-history flag to skip storing this request.")
	}
}

func looksSensitive(body string) bool {
	lowerBody := strings.ToLower(body)
	for _, pattern := range sensitiveBodyPatterns {
		if strings.Contains(lowerBody, pattern) {
			return true
		}
	}
	return false
}
