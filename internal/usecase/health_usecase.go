package usecase

import "context"

// Configurable is implemented by delivery clients that can report whether
// their relay credentials are present.
type Configurable interface {
	IsConfigured() bool
}

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct {
	driver string
	client Configurable
}

func NewHealthUsecase(driver string, client Configurable) HealthUsecase {
	return &healthUsecase{driver: driver, client: client}
}

// Check never fails: a missing relay configuration is reported, not fatal.
func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	delivery := "configured"
	if u.client == nil || !u.client.IsConfigured() {
		delivery = "unconfigured"
	}
	return map[string]string{
		"status":          "ok",
		"delivery_driver": u.driver,
		"delivery":        delivery,
	}
}
