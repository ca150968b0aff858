package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerWelcomeBindings(r)
	registerConnectBindings(r)
	registerMainBindings(r)

	return r
}

func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
	r.Register(ContextGlobal, "?", ActionShowHelp)
}

func registerWelcomeBindings(r *Registry) {
	r.RegisterMultiple(ContextWelcome, []string{"enter", " ", "c"}, ActionContinue)
	r.RegisterMultiple(ContextWelcome, []string{"q", "esc"}, ActionQuit)
}

// registerConnectBindings avoids printable keys: the address input owns them
func registerConnectBindings(r *Registry) {
	r.Register(ContextConnect, "enter", ActionConnect)
	r.RegisterMultiple(ContextConnect, []string{"up", "ctrl+p"}, ActionHistoryUp)
	r.RegisterMultiple(ContextConnect, []string{"down", "ctrl+n"}, ActionHistoryDown)
	r.Register(ContextConnect, "ctrl+d", ActionHistoryForget)
	r.Register(ContextConnect, "ctrl+x", ActionHistoryClear)
	r.Register(ContextConnect, "esc", ActionCancel)
	// "?" is a legal address character here
	r.Register(ContextConnect, "?", ActionNoOp)
}

func registerMainBindings(r *Registry) {
	r.RegisterMultiple(ContextMain, []string{" ", "enter", "t"}, ActionToggle)
	r.Register(ContextMain, "d", ActionDisconnect)
	r.Register(ContextMain, "s", ActionChangeServer)
	r.Register(ContextMain, "y", ActionCopyAddress)
	r.RegisterMultiple(ContextMain, []string{"q", "esc"}, ActionQuit)
}
