// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import "sync"

// Reporter accumulates exceptions raised while a grammar is loaded and
// analysed. A pass may report a problem and keep going so that the user
// sees every error at once; the returned value tells the pass whether the
// record is fatal.
type Reporter interface {
	// Report adds the given record to the set. If this method returns an error
	// then the given error is considered fatal.
	Report(Exception) Exception
	// Reported returns the set of accumulated exceptions.
	Reported() []Exception
	// Failed reports whether any fatal exception was recorded.
	Failed() bool
}

// NewReporter returns a concurrent-safe implementation of Reporter.
func NewReporter(nonFatal []string) Reporter {
	nf := make(map[string]bool, len(defaultNonFatal)+len(nonFatal))
	for k := range defaultNonFatal {
		nf[k] = true
	}
	for _, k := range nonFatal {
		nf[k] = true
	}
	return &reporterLock{
		Reporter: &reporter{
			nonFatal: nf,
		},
		lock: &sync.Mutex{},
	}
}

type reporter struct {
	reported []Exception
	nonFatal map[string]bool
	failed   bool
}

func (r *reporter) Report(e Exception) Exception {
	r.reported = append(r.reported, e)
	if r.nonFatal[e.Code()] {
		return nil
	}
	r.failed = true
	return e
}

func (r *reporter) Reported() []Exception {
	return r.reported
}

func (r *reporter) Failed() bool {
	return r.failed
}

type reporterLock struct {
	Reporter
	lock sync.Locker
}

func (r *reporterLock) Report(e Exception) Exception {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.Reporter.Report(e)
}

func (r *reporterLock) Reported() []Exception {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.Reporter.Reported()
}

func (r *reporterLock) Failed() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.Reporter.Failed()
}
