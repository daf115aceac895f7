package source

import (
	"context"
	"os"
	"strings"

	"github.com/skekre98/arc/config"
)

// EnvPrefix is the prefix an environment variable needs to be loaded.
const EnvPrefix = "ARC_"

// EnvSource loads configuration from ARC_-prefixed environment variables.
// The rest of the name is lowercased and split on underscores into nested
// keys:
//
//	ARC_HTTPCLIENT_BASEURL=https://funpay.com
//	  -> {httpclient: {baseurl: "https://funpay.com"}}
//
// Keys match struct tags case-insensitively when bound. Values stay strings
// until binding converts them.
//
// If a leaf already exists at a path, deeper variables under it are
// skipped: with ARC_DB=x set, ARC_DB_HOST is ignored.
type EnvSource struct {
	// Environ overrides os.Environ, mainly for tests.
	Environ func() []string
}

func (e *EnvSource) Name() string { return "env" }

func (e *EnvSource) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	environ := os.Environ
	if e.Environ != nil {
		environ = e.Environ
	}
	return loadEnvVars(environ()), nil
}

// Watch is a no-op: the environment is fixed for the process lifetime.
func (e *EnvSource) Watch(ctx context.Context, ch chan<- config.Event) error {
	return nil
}

func loadEnvVars(environ []string) map[string]any {
	result := make(map[string]any)

	for _, env := range environ {
		key, value, found := strings.Cut(env, "=")
		if !found || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}

		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		setNestedValue(result, strings.Split(key, "_"), value)
	}

	return result
}

func setNestedValue(m map[string]any, segments []string, value string) {
	current := m

	for i, segment := range segments {
		if segment == "" {
			continue
		}

		if i == len(segments)-1 {
			current[segment] = value
			return
		}

		existing, exists := current[segment]
		if !exists {
			nested := make(map[string]any)
			current[segment] = nested
			current = nested
			continue
		}
		nested, ok := existing.(map[string]any)
		if !ok {
			// a leaf already sits here
			return
		}
		current = nested
	}
}
