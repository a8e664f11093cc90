package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oliveigah/banking-prototype/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

type opKind int

const (
	opStore opKind = iota
	opGet
)

type request struct {
	kind   opKind
	folder string
	key    string
	data   []byte
	reply  chan result // nil for fire-and-forget stores
}

type result struct {
	data  []byte
	found bool
	err   error
}

// Pool is a fixed set of storage workers. A stable hash of the key selects the
// slot, so every request for one key is serialized through the same worker in
// FIFO order. Values live at base_folder/<folder>/<key>.
type Pool struct {
	base    string
	workers []*worker
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	log     zerolog.Logger
}

// NewPool creates the base folder and starts n workers.
func NewPool(baseFolder string, n int, log zerolog.Logger) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("storage pool needs at least one worker, got %d", n)
	}
	if err := os.MkdirAll(baseFolder, 0o755); err != nil {
		return nil, fmt.Errorf("creating base folder: %w", err)
	}

	p := &Pool{
		base: baseFolder,
		log:  logger.ForComponent(log, "storage_pool"),
	}
	for i := 0; i < n; i++ {
		w := &worker{
			slot:     i,
			base:     baseFolder,
			requests: make(chan request, 64),
			log:      logger.ForSlot(p.log, i),
		}
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go w.run(&p.wg)
	}
	return p, nil
}

// StoreSync blocks until the value is durably written.
func (p *Pool) StoreSync(folder, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	reply := make(chan result, 1)
	if err := p.dispatch(request{kind: opStore, folder: folder, key: key, data: data, reply: reply}); err != nil {
		return err
	}
	res := <-reply
	return res.err
}

// StoreAsync enqueues the write and returns. Encoding failures surface
// immediately; write failures are logged by the owning slot.
func (p *Pool) StoreAsync(folder, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return p.dispatch(request{kind: opStore, folder: folder, key: key, data: data})
}

// Get blocks and decodes the latest value for the key into out. Returns false
// with a nil error when no record exists.
func (p *Pool) Get(folder, key string, out any) (bool, error) {
	reply := make(chan result, 1)
	if err := p.dispatch(request{kind: opGet, folder: folder, key: key, reply: reply}); err != nil {
		return false, err
	}
	res := <-reply
	if res.err != nil {
		return false, res.err
	}
	if !res.found {
		return false, nil
	}
	return true, decode(res.data, out)
}

// Close drains every slot and waits for in-flight requests to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for _, w := range p.workers {
		close(w.requests)
	}
	p.wg.Wait()
}

func (p *Pool) dispatch(req request) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("storage pool is closed")
	}
	p.workers[p.slot(req.key)].requests <- req
	return nil
}

// slot maps a key to its owning worker. The hash must be stable across the
// process lifetime so one key never migrates between slots.
func (p *Pool) slot(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(p.workers)))
}

type worker struct {
	slot     int
	base     string
	requests chan request
	log      zerolog.Logger
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for req := range w.requests {
		switch req.kind {
		case opStore:
			err := w.write(req.folder, req.key, req.data)
			if req.reply != nil {
				req.reply <- result{err: err}
			} else if err != nil {
				w.log.Error().Err(err).Str("folder", req.folder).Str("key", req.key).Msg("async store failed")
			}
		case opGet:
			data, found, err := w.read(req.folder, req.key)
			req.reply <- result{data: data, found: found, err: err}
		}
	}
}

// write lands the bytes with a temp-file + rename so a crash mid-write never
// corrupts the previous record.
func (w *worker) write(folder, key string, data []byte) error {
	dir := filepath.Join(w.base, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating folder %s: %w", folder, err)
	}
	path := filepath.Join(dir, key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s/%s: %w", folder, key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s/%s: %w", folder, key, err)
	}
	return nil
}

func (w *worker) read(folder, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(w.base, folder, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s/%s: %w", folder, key, err)
	}
	return data, true, nil
}
