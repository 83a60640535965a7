package generator_test

import (
	"sync"
	"testing"

	"github.com/glizzus/pipeline-schedule/internal/generator"
	"github.com/google/uuid"
)

func TestUUIDV4GeneratorConcurrentIDsAreUnique(t *testing.T) {
	const (
		workers   = 8
		perWorker = 5000
	)
	gen := &generator.UUIDV4Generator{}

	ids := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				id, err := gen.Next()
				if err != nil {
					t.Errorf("Next returned error: %v", err)
					return
				}
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, workers*perWorker)
	for id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("Next returned %q which is not a UUID: %v", id, err)
		}
		if parsed.Version() != 4 {
			t.Errorf("Next returned version %d UUID %s; want version 4", parsed.Version(), id)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("Next returned duplicate ID %s", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != workers*perWorker {
		t.Errorf("got %d IDs; want %d", len(seen), workers*perWorker)
	}
}
