package subscribers

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrymomot/subscribe/pkg/flag"
)

var _ Provider = (*FlagProvider)(nil)

// FlagProvider reports every account that set an enabled subscription flag on an
// entity of the context map. The candidate carries the matching flag IDs.
type FlagProvider struct {
	flags flag.Service
	cfg   Config
}

// NewFlagProvider creates the default flag-based provider.
func NewFlagProvider(flags flag.Service, cfg Config) *FlagProvider {
	return &FlagProvider{flags: flags, cfg: cfg}
}

func (p *FlagProvider) Subscribers(ctx context.Context, q Query) (*Recipients, error) {
	catalogue, err := p.flags.AllFlags(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	byType := make(map[string][]string)
	prefix := p.cfg.flagPrefix()
	for id, f := range catalogue {
		if f.Enabled && strings.HasPrefix(id, prefix) {
			byType[f.EntityType] = append(byType[f.EntityType], id)
		}
	}

	out := NewRecipients()
	for _, typ := range q.Context.Types() {
		ids := q.Context.IDs(typ)
		flagIDs := byType[typ]
		if len(ids) == 0 || len(flagIDs) == 0 {
			continue
		}
		slices.Sort(flagIDs)

		items, err := p.flags.Flaggings(ctx, flag.Query{
			FlagIDs:        flagIDs,
			EntityType:     typ,
			EntityIDs:      ids,
			AfterAccountID: q.Options.LastRecipientID,
		})
		if err != nil {
			return nil, fmt.Errorf("find %s flaggings: %w", typ, err)
		}
		for _, f := range items {
			out.Add(NewCandidate(f.AccountID, []string{f.FlagID}, nil))
		}
	}
	return out, nil
}
