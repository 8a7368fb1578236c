package assistant

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/dockwise/pkg/adapters/docker"
)

// ValidateImage accepts image references and adds the default tag.
func ValidateImage(_ context.Context, value any) (any, bool, error) {
	ref, err := docker.NormalizeReference(fmt.Sprint(value))
	if err != nil {
		return nil, false, nil
	}
	return ref, true, nil
}

// ValidatePort accepts a port ("8080") or a host:container mapping
// ("8080:80") with every number in 1..65535.
func ValidatePort(_ context.Context, value any) (any, bool, error) {
	var raw string
	switch v := value.(type) {
	case int:
		raw = strconv.Itoa(v)
	case int64:
		raw = strconv.FormatInt(v, 10)
	case float64:
		if v != math.Trunc(v) {
			return nil, false, nil
		}
		raw = strconv.FormatInt(int64(v), 10)
	case string:
		raw = strings.TrimSpace(v)
	default:
		return nil, false, nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 2 {
		return nil, false, nil
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, false, nil
		}
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ":"), true, nil
}

// Publish turns a validated port into a -p argument: a bare port maps to
// the same container port.
func Publish(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return port + ":" + port
}

// ValidateConfirm normalizes yes/no answers to "yes" or "no".
func ValidateConfirm(_ context.Context, value any) (any, bool, error) {
	if b, ok := value.(bool); ok {
		if b {
			return "yes", true, nil
		}
		return "no", true, nil
	}
	switch strings.ToLower(strings.TrimSpace(fmt.Sprint(value))) {
	case "y", "yes", "true", "1":
		return "yes", true, nil
	case "n", "no", "false", "0":
		return "no", true, nil
	}
	return nil, false, nil
}
