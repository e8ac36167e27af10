package speech

import "sync"

// Silent is a Speaker that produces no audio. Each utterance finishes as soon
// as it starts, which keeps audio markers meaningful when no engine exists.
type Silent struct {
	wg sync.WaitGroup
}

// Speak completes u asynchronously.
func (s *Silent) Speak(_ Utterance, done func(error)) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		done(nil)
	}()
	return nil
}

// Cancel is a no-op.
func (s *Silent) Cancel() {}

// Wait blocks until every pending completion callback has run.
func (s *Silent) Wait() {
	s.wg.Wait()
}
