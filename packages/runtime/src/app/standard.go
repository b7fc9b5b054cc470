package app

import (
	"au-go/packages/runtime/src/binding"
	"au-go/packages/runtime/src/definition"
	"au-go/packages/runtime/src/di"
	"au-go/packages/runtime/src/platform"
	"au-go/packages/runtime/src/templatecontrollers"
	"au-go/packages/runtime/src/templating"
)

// RegisterStandard registers the runtime services, the template controllers
// and the standard binding behaviors
func RegisterStandard(c *di.Container, p *platform.Platform) {
	templating.RegisterServices(c, p)
	templatecontrollers.Register(c)
	definition.Register(c, StandardBehaviors()...)
}

func modeBehavior(name string, mode binding.Mode) definition.Resource {
	return &definition.BindingBehaviorDefinition{
		Name: name,
		New: func(*di.Container) (binding.Behavior, error) {
			return binding.NewModeBehavior(mode), nil
		},
	}
}

// StandardBehaviors returns `& oneTime`, `& toView`, `& fromView`,
// `& twoWay` and `& debounce`
func StandardBehaviors() []definition.Resource {
	return []definition.Resource{
		modeBehavior("oneTime", binding.OneTime),
		modeBehavior("toView", binding.ToView),
		modeBehavior("fromView", binding.FromView),
		modeBehavior("twoWay", binding.TwoWay),
		&definition.BindingBehaviorDefinition{
			Name: "debounce",
			New: func(c *di.Container) (binding.Behavior, error) {
				p, err := di.Get(c, templating.PlatformKey)
				if err != nil {
					return nil, err
				}
				return binding.NewDebounceBehavior(p), nil
			},
		},
	}
}
