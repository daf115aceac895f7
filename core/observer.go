package core

// Observer is notified after each lifecycle transition the Manager drives.
type Observer interface {
	ModuleStarted(m Module)
	ModuleStopped(m Module)
	ModuleFailed(m Module, stage Stage, err error)
}

type observers []Observer

func (o observers) started(m Module) {
	for _, ob := range o {
		ob.ModuleStarted(m)
	}
}

func (o observers) stopped(m Module) {
	for _, ob := range o {
		ob.ModuleStopped(m)
	}
}

func (o observers) failed(m Module, stage Stage, err error) {
	for _, ob := range o {
		ob.ModuleFailed(m, stage, err)
	}
}
