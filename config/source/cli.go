package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/skekre98/arc/config"
)

// CLISource loads dotted command-line flags as nested configuration:
//
//	--httpClient.baseURL=https://funpay.com --probe.path /health
//	  -> {httpClient: {baseURL: "https://funpay.com"}, probe: {path: "/health"}}
//
// Both --flag=value and --flag value work, single-dash long flags are
// accepted, empty values and positional arguments are ignored. Put it last
// so flags override every other source.
type CLISource struct {
	// Args replaces os.Args[1:] when non-nil.
	Args []string
}

func (c *CLISource) Name() string { return "cli" }

func (c *CLISource) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	args := c.Args
	if args == nil {
		args = os.Args[1:]
	}
	return parseCliFlags(args), nil
}

// Watch is a no-op; arguments are fixed for the process lifetime.
func (c *CLISource) Watch(ctx context.Context, ch chan<- config.Event) error {
	return nil
}

func parseCliFlags(rawArgs []string) map[string]any {
	result := make(map[string]any)
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	args := normalizeArgs(rawArgs)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name := extractFlagName(arg)
		if name == "" {
			continue
		}
		if fs.Lookup(name) == nil {
			fs.String(name, "", fmt.Sprintf("config value for %s", name))
		}

		if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}

	_ = fs.Parse(args)

	fs.VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			return
		}
		value := flag.Value.String()
		if value == "" {
			return
		}
		setNestedValue(result, strings.Split(flag.Name, "."), value)
	})

	return result
}

// normalizeArgs turns single-dash long flags into double-dash for pflag.
func normalizeArgs(args []string) []string {
	normalized := make([]string, len(args))
	for i, arg := range args {
		normalized[i] = arg
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") {
			rest := strings.TrimPrefix(arg, "-")
			if len(rest) > 1 && rest[0] != '=' {
				normalized[i] = "-" + arg
			}
		}
	}
	return normalized
}

// extractFlagName strips dashes and any =value suffix.
func extractFlagName(arg string) string {
	arg = strings.TrimLeft(arg, "-")
	name, _, _ := strings.Cut(arg, "=")
	return name
}
