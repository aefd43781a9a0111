package worker

// NotifyPolicy decides once per cycle whether new listings are sent or only
// logged. The first cycle over empty state stays quiet when suppress is set,
// so a fresh deployment does not announce every listing already online.
func NotifyPolicy(initialized, suppressFirstRun bool) bool {
	return initialized || !suppressFirstRun
}
