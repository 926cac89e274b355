package pampax

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lemon07r/pampax/internal/searcher"
	"github.com/lemon07r/pampax/pkg/types"
)

// ListContextPacks reads every *.json file under .pampa/contextpacks,
// defaulting Name to the file's basename when the file itself omits it.
func (c *Core) ListContextPacks() ([]types.ContextPack, error) {
	matches, err := filepath.Glob(filepath.Join(c.packsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("pampax: list context packs: %w", err)
	}
	sort.Strings(matches)

	packs := make([]types.ContextPack, 0, len(matches))
	for _, path := range matches {
		pack, err := loadContextPack(path)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// UseContextPack loads a single pack by name and translates it into a
// searcher.Scope, so callers can pass the result straight into
// searcher.Request.Scope.
func (c *Core) UseContextPack(name string) (types.ContextPack, searcher.Scope, error) {
	path := filepath.Join(c.packsDir, name+".json")
	pack, err := loadContextPack(path)
	if err != nil {
		return types.ContextPack{}, searcher.Scope{}, fmt.Errorf("pampax: %w: context pack %q", types.ErrNotFound, name)
	}
	return pack, contextPackScope(pack), nil
}

func loadContextPack(path string) (types.ContextPack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ContextPack{}, fmt.Errorf("pampax: read context pack %s: %w", path, err)
	}
	var pack types.ContextPack
	if err := json.Unmarshal(data, &pack); err != nil {
		return types.ContextPack{}, fmt.Errorf("pampax: parse context pack %s: %w", path, err)
	}
	if pack.Name == "" {
		base := filepath.Base(path)
		pack.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return pack, nil
}

func contextPackScope(p types.ContextPack) searcher.Scope {
	return searcher.Scope{
		PathGlob:    p.PathGlob,
		Tags:        p.Tags,
		Lang:        p.Lang,
		Hybrid:      p.Hybrid,
		BM25:        p.BM25,
		SymbolBoost: p.SymbolBoost,
		Reranker:    p.Reranker,
	}
}
