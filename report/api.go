package report

// -----------------------------------------------------------------------------
// Below are all the "aesthetic" reporting functions that will only run if the
// log level is set to verbose.  These provide additional information about the
// compilation process to the user so as to make the compiler more friendly.

// ReportCompileHeader reports the pre-compilation header: information about
// the compiler's current configuration (version, project, target).
func ReportCompileHeader(version, project, target string) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelVerbose {
		displayCompileHeader(version, project, target)
	}
}

// ReportBeginPhase reports the beginning of a compilation phase.  Any phase
// still in progress is ended successfully first.
func ReportBeginPhase(phase string) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelVerbose {
		displayEndPhase(true)
		displayBeginPhase(phase)
	}
}

// ReportEndPhase reports the end of the current compilation phase.  The
// phase's success is determined by whether any errors have been reported.
func ReportEndPhase() {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelVerbose {
		displayEndPhase(rep.errorCount == 0)
	}
}

// ReportCompilationFinished reports the concluding message for compilation.
func ReportCompilationFinished(outputPath string) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelVerbose {
		displayCompilationFinished(rep.errorCount == 0, rep.errorCount, rep.warningCount, outputPath)
	}
}
