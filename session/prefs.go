package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/homy/homyadmin/kv"
	"github.com/homy/homyadmin/view"
)

func prefsKey(name string) []byte {
	return []byte("view/" + name)
}

// LoadPrefs returns the saved query, sort and page size of a named view.
func LoadPrefs(ctx context.Context, store kv.KV, name string) (view.State, bool, error) {
	if store == nil {
		return view.State{}, false, nil
	}

	r := store.Read()
	defer r.Close()

	b, err := r.Get(ctx, prefsKey(name))
	if err != nil {
		return view.State{}, false, fmt.Errorf("load view %s: %w", name, err)
	}
	if b == nil {
		return view.State{}, false, nil
	}

	var st view.State
	if err := json.Unmarshal(b, &st); err != nil {
		return view.State{}, false, fmt.Errorf("decode view %s: %w", name, err)
	}
	return st, true, nil
}

// SavePrefs stores the parts of st worth restoring. The page index is not saved.
func SavePrefs(ctx context.Context, store kv.KV, name string, st view.State) error {
	if store == nil {
		return nil
	}

	st.PageIndex = 0
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}

	w := store.Write()
	defer w.Rollback()

	if err := w.Put(prefsKey(name), b); err != nil {
		return fmt.Errorf("save view %s: %w", name, err)
	}
	return w.Commit(ctx)
}
