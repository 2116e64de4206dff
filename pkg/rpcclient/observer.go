package rpcclient

import (
	"encoding/json"
	"time"
)

type multiObserver []CallObserver

// CombineObservers fans one call observation out to several observers, in
// order. Nil entries are skipped.
func CombineObservers(observers ...CallObserver) CallObserver {
	var out multiObserver
	for _, obs := range observers {
		if obs != nil {
			out = append(out, obs)
		}
	}
	return out
}

func (m multiObserver) ObserveCall(method string, params []any, result json.RawMessage, err error, elapsed time.Duration) {
	for _, obs := range m {
		obs.ObserveCall(method, params, result, err, elapsed)
	}
}
