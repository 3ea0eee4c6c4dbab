package conformance

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/awslabs/udisks-conformance/pkg/profile"
	"github.com/awslabs/udisks-conformance/pkg/scenario"
)

// DefineTests registers a Ginkgo container per selected profile of `h` with a spec per scenario,
// followed by the negative scenarios. All specs share the fixture device and run serially.
func DefineTests(h *Harness) {
	for _, p := range h.Profiles {
		if h.Runner.Selected(p.Name) {
			defineProfile(h.Runner, p, scenario.Battery())
		}
	}
	if h.Runner.Selected(scenario.Failsystem.Name) {
		defineProfile(h.Runner, scenario.Failsystem, scenario.NegativeBattery(h.Profiles))
	}
}

func defineProfile(r *scenario.Runner, p profile.Profile, scenarios []scenario.Scenario) {
	ginkgo.Describe(p.Name, ginkgo.Serial, func() {
		for _, s := range scenarios {
			ginkgo.It(s.Name, func(ctx ginkgo.SpecContext) {
				result := r.Run(ctx, p, s)
				if result.Status == scenario.StatusSkipped {
					ginkgo.Skip(result.Reason)
				}
				gomega.Expect(result.Status).To(gomega.Equal(scenario.StatusPassed), result.Reason)
			})
		}
	})
}
