package witness

import (
	"context"
	"fmt"
	"sync"

	"github.com/hdp-go/hdp/internal/mmr"
	"github.com/hdp-go/hdp/internal/rpcclient"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// maxConcurrentFetches bounds the fan-out across every witness family,
// generalizing proof_keys.rs's `buffer_unordered(BUFFER_UNORDERED)` (and
// geth-16-concurrency's fixed worker pool) into one shared limit.
const maxConcurrentFetches = 50

// RequestKeys is the deduplicated set of proof requests a dry-run pass
// discovered it needs, mirroring fetcher::ProofKeys.
type RequestKeys struct {
	Headers      map[HeaderKey]struct{}
	Accounts     map[AccountKey]struct{}
	Storages     map[StorageKey]struct{}
	Receipts     map[ReceiptKey]struct{}
	Transactions map[TransactionKey]struct{}
}

// NewRequestKeys returns an empty, ready-to-populate RequestKeys.
func NewRequestKeys() *RequestKeys {
	return &RequestKeys{
		Headers:      map[HeaderKey]struct{}{},
		Accounts:     map[AccountKey]struct{}{},
		Storages:     map[StorageKey]struct{}{},
		Receipts:     map[ReceiptKey]struct{}{},
		Transactions: map[TransactionKey]struct{}{},
	}
}

// Fetcher drives the bounded-concurrency fetch of every requested witness
// family and merges the results into one deduplicated Bundle, grounded on
// fetcher::Fetcher::collect_evm_proofs.
type Fetcher struct {
	EVM     rpcclient.EVMClient
	Indexer rpcclient.IndexerClient
}

// Collect fetches every family in keys concurrently (bounded by
// maxConcurrentFetches) and merges the results into a single Bundle, with
// headers grouped and deduplicated by MMR commitment key.
func (f *Fetcher) Collect(ctx context.Context, keys *RequestKeys) (Bundle, error) {
	sem := semaphore.NewWeighted(maxConcurrentFetches)
	g, ctx := errgroup.WithContext(ctx)

	headersByMeta := make(map[mmr.Key]*HeaderMmrMeta)
	var headersMu sync.Mutex
	var accounts []AccountWitness
	var accountsMu sync.Mutex
	var storages []StorageWitness
	var storagesMu sync.Mutex
	var receipts []ReceiptWitness
	var receiptsMu sync.Mutex
	var transactions []TransactionWitness
	var transactionsMu sync.Mutex

	mergeHeader := func(h HeaderMmrMeta) {
		headersMu.Lock()
		defer headersMu.Unlock()
		if existing, ok := headersByMeta[h.Meta.Key()]; ok {
			existing.Headers = append(existing.Headers, h.Headers...)
			return
		}
		cp := h
		headersByMeta[h.Meta.Key()] = &cp
	}

	for key := range keys.Headers {
		key := key
		if err := sem.Acquire(ctx, 1); err != nil {
			return Bundle{}, fmt.Errorf("witness: acquire fetch slot: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			h, err := FetchHeaderProof(ctx, f.Indexer, key)
			if err != nil {
				return err
			}
			mergeHeader(h)
			return nil
		})
	}

	for key := range keys.Accounts {
		key := key
		if err := sem.Acquire(ctx, 1); err != nil {
			return Bundle{}, fmt.Errorf("witness: acquire fetch slot: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			h, acc, err := FetchAccountProof(ctx, f.EVM, f.Indexer, key)
			if err != nil {
				return err
			}
			mergeHeader(h)
			accountsMu.Lock()
			accounts = append(accounts, acc)
			accountsMu.Unlock()
			return nil
		})
	}

	for key := range keys.Storages {
		key := key
		if err := sem.Acquire(ctx, 1); err != nil {
			return Bundle{}, fmt.Errorf("witness: acquire fetch slot: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			h, acc, stor, err := FetchStorageProof(ctx, f.EVM, f.Indexer, key)
			if err != nil {
				return err
			}
			mergeHeader(h)
			accountsMu.Lock()
			accounts = append(accounts, acc)
			accountsMu.Unlock()
			storagesMu.Lock()
			storages = append(storages, stor)
			storagesMu.Unlock()
			return nil
		})
	}

	for key := range keys.Receipts {
		key := key
		if err := sem.Acquire(ctx, 1); err != nil {
			return Bundle{}, fmt.Errorf("witness: acquire fetch slot: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			h, r, err := FetchReceiptProof(ctx, f.EVM, f.Indexer, key)
			if err != nil {
				return err
			}
			mergeHeader(h)
			receiptsMu.Lock()
			receipts = append(receipts, r)
			receiptsMu.Unlock()
			return nil
		})
	}

	for key := range keys.Transactions {
		key := key
		if err := sem.Acquire(ctx, 1); err != nil {
			return Bundle{}, fmt.Errorf("witness: acquire fetch slot: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			h, tx, err := FetchTransactionProof(ctx, f.EVM, f.Indexer, key)
			if err != nil {
				return err
			}
			mergeHeader(h)
			transactionsMu.Lock()
			transactions = append(transactions, tx)
			transactionsMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Bundle{}, fmt.Errorf("witness: collect proofs: %w", err)
	}

	headers := make([]HeaderMmrMeta, 0, len(headersByMeta))
	for _, h := range headersByMeta {
		headers = append(headers, *h)
	}

	return Bundle{
		HeadersWithMMR: headers,
		Accounts:       accounts,
		Storages:       storages,
		Receipts:       receipts,
		Transactions:   transactions,
	}, nil
}
