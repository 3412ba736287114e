package main

import (
	"os"
	"os/signal"
	"runtime/pprof"
	"sync"
	"syscall"
)

var (
	profileMu   sync.Mutex
	profileFile *os.File
)

// startProfile collects a CPU profile into file until the command returns or
// the process is interrupted, ready to be used for profile guided builds.
func startProfile(file string) {
	f, err := os.Create(file)
	if err != nil {
		log.Warn().Err(err).Msg("cpu profile disabled")
		return
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		log.Warn().Err(err).Msg("cpu profile disabled")
		return
	}
	profileMu.Lock()
	profileFile = f
	profileMu.Unlock()
	log.Info().Str("file", file).Msg("cpu profile started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		stopProfile()
		os.Exit(130)
	}()
}

func stopProfile() {
	profileMu.Lock()
	defer profileMu.Unlock()
	if profileFile == nil {
		return
	}
	pprof.StopCPUProfile()
	profileFile.Close()
	profileFile = nil
}
