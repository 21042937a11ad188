package application

import (
	"time"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

func ResolveObserver(observer ports.Observer) ports.Observer {
	if observer != nil {
		return observer
	}
	return nopObserver{}
}

type nopObserver struct{}

func (nopObserver) ObserveClaim(entities.DistributionMode, string, time.Duration) {}
func (nopObserver) ObserveDecision(entities.ReviewDecision, string)              {}
func (nopObserver) ObserveIncident(string)                                       {}
func (nopObserver) ObserveReleasedReservations(string, int)                      {}
