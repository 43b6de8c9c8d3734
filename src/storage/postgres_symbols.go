package storage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/lib/pq"
)

var symbolRefRe = regexp.MustCompile(`^(\w+)\.(\w+)\.(\w+)$`)

// SymbolRef points at a column holding tickers ("schema.table.field").
type SymbolRef struct {
	Schema string
	Table  string
	Field  string
}

func (r SymbolRef) String() string {
	return r.Schema + "." + r.Table + "." + r.Field
}

// -----------------------------------------------------------------------------

// splitSymbolRefs separates plain tickers from table references, keeping
// input order for the tickers.
func splitSymbolRefs(raw []string) ([]string, []SymbolRef) {
	var (
		plain []string
		refs  []SymbolRef
	)
	for _, sym := range raw {
		if m := symbolRefRe.FindStringSubmatch(sym); len(m) == 4 {
			refs = append(refs, SymbolRef{Schema: m[1], Table: m[2], Field: m[3]})
			continue
		}
		plain = append(plain, sym)
	}
	return plain, refs
}

// -----------------------------------------------------------------------------

// RegisterSymbols expands table references into their tickers and ranks the
// result in input order.
func (d *PostgresDB) RegisterSymbols(ctx context.Context, sourceName string, symbols []string) error {
	var expanded []string
	seen := make(map[string]bool)
	add := func(sym string) {
		if sym != "" && !seen[sym] {
			seen[sym] = true
			expanded = append(expanded, sym)
		}
	}

	for _, sym := range symbols {
		m := symbolRefRe.FindStringSubmatch(sym)
		if len(m) != 4 {
			add(sym)
			continue
		}
		loaded, err := d.GetSymbolsFromTable(ctx, SymbolRef{Schema: m[1], Table: m[2], Field: m[3]})
		if err != nil {
			return fmt.Errorf("failed to load symbols from %s: %w", sym, err)
		}
		for _, s := range loaded {
			add(s)
		}
	}

	if err := d.sqlBarStore.RegisterSymbols(ctx, sourceName, expanded); err != nil {
		return fmt.Errorf("failed to register symbols: %w", err)
	}
	d.Logger.Info("PostgresDB: registered %d symbols for %s", len(expanded), sourceName)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetSymbolsFromTable(ctx context.Context, ref SymbolRef) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s.%s`,
		pq.QuoteIdentifier(ref.Field), pq.QuoteIdentifier(ref.Schema), pq.QuoteIdentifier(ref.Table))

	rows, err := d.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, rows.Err()
}
