package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
)

// LoadSymbols resolves an instrument universe from, in order of
// preference: an inline list, a newline-delimited file, or a remote
// newline-delimited URL. File and URL loads are de-duplicated and sorted;
// an inline list keeps its configured order.
func LoadSymbols(ctx context.Context, client *http.Client, inline []string, file, url string) ([]string, error) {
	if len(inline) > 0 {
		return inline, nil
	}

	var contents string
	switch {
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read symbols file: %w", err)
		}
		contents = string(b)
	case url != "":
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("symbols url: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch symbols url: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch symbols url: status %d", resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read symbols url: %w", err)
		}
		contents = string(b)
	default:
		return nil, fmt.Errorf("no symbol source configured")
	}

	seen := make(map[string]struct{})
	var symbols []string
	for _, line := range strings.Split(contents, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbol source is empty")
	}
	return symbols, nil
}
