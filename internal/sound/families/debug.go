package families

import (
	"context"
	"log"

	"github.com/hdp-go/hdp/internal/vm"
)

// Debug handles the reserved debug contract address the same way the
// dry-run pass does: log and return nothing.
func Debug(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	log.Printf("sound debug: selector=%d calldata=%v", call.Selector, call.Calldata)
	return vm.Result{}, nil
}
