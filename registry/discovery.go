package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhound420/acp-agents-skill/core"
)

// WellKnownPath is the metadata document location probed by Discover.
const WellKnownPath = "/.well-known/agent.json"

// Metadata is the agent metadata document served at the well-known path. A
// hosting process may describe a single agent or carry an Agents list when
// it hosts several; Discover accepts both shapes.
type Metadata struct {
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Capabilities       []string   `json:"capabilities"`
	InputContentTypes  []string   `json:"input_content_types,omitempty"`
	OutputContentTypes []string   `json:"output_content_types,omitempty"`
	Agents             []Metadata `json:"agents,omitempty"`
}

// Discover fetches the metadata document at endpoint, constructs remote
// descriptors and registers them. It returns the descriptors registered.
// Network errors and documents missing required fields (name, capabilities)
// fail with discovery_failed. The registry lock is never held during the
// network fetch.
func (r *Registry) Discover(ctx context.Context, endpoint string) ([]Descriptor, error) {
	endpoint = strings.TrimRight(endpoint, "/")

	doc, err := r.fetchMetadata(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	entries := doc.Agents
	if len(entries) == 0 {
		entries = []Metadata{*doc}
	}

	// Validate the whole document before registering anything, so a
	// manifest with one malformed entry does not leave partial state.
	for _, md := range entries {
		if err := validateMetadata(md); err != nil {
			return nil, core.WrapError(core.KindDiscoveryFailed, md.Name,
				fmt.Errorf("malformed metadata from %s: %w", endpoint, err))
		}
	}

	now := time.Now().UTC()
	discovered := make([]Descriptor, 0, len(entries))
	for _, md := range entries {
		d := Descriptor{
			Name:         md.Name,
			Kind:         KindRemote,
			Description:  md.Description,
			Capabilities: md.Capabilities,
			Endpoint:     endpoint,
			DiscoveredAt: now,
		}
		r.Register(d)
		discovered = append(discovered, d)
		r.logger.Info("agent discovered", "agent", d.Name, "endpoint", endpoint)
	}

	return discovered, nil
}

func (r *Registry) fetchMetadata(ctx context.Context, endpoint string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, r.httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+WellKnownPath, nil)
	if err != nil {
		return nil, core.WrapError(core.KindDiscoveryFailed, "", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, core.WrapError(core.KindDiscoveryFailed, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.Errorf(core.KindDiscoveryFailed, "",
			"discovery at %s returned status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, core.WrapError(core.KindDiscoveryFailed, "", err)
	}

	var doc Metadata
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, core.WrapError(core.KindDiscoveryFailed, "",
			fmt.Errorf("invalid metadata document: %w", err))
	}
	return &doc, nil
}

func validateMetadata(md Metadata) error {
	if md.Name == "" {
		return fmt.Errorf("missing required field %q", "name")
	}
	if md.Capabilities == nil {
		return fmt.Errorf("missing required field %q", "capabilities")
	}
	return nil
}
