package families

import (
	"context"
	"log"

	"github.com/hdp-go/hdp/internal/vm"
)

// Debug handles the reserved debug contract address: it logs its calldata
// and returns nothing, mirroring
// sound_hint_processor::syscall_handler::CallContractHandlerRelay's
// debug_call_contract_handler branch. It never touches the key set — debug
// calls carry no witness obligation.
func Debug(ctx context.Context, d Deps, call vm.Call) (vm.Result, error) {
	log.Printf("dryrun debug: selector=%d calldata=%v", call.Selector, call.Calldata)
	return vm.Result{}, nil
}
