package state_test

import (
	"stocktrack/domain/state"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("StateMachine", func() {
	var (
		stateMachine *state.StateMachine
	)

	BeforeEach(func() {
		//         PENDING      DOING         DONE
		// PENDING   -            V (begin)   V (close)
		// DOING     V (cancel)   -           V (finish)
		// DONE      X            X           -
		stateMachine = state.NewStateMachine(
			[]state.State{{Name: "PENDING"}, {Name: "DOING"}, {Name: "DONE"}},
			[]state.Transition{
				{Name: "begin", From: state.State{Name: "PENDING"}, To: state.State{Name: "DOING"}},
				{Name: "close", From: state.State{Name: "PENDING"}, To: state.State{Name: "DONE"}},
				{Name: "cancel", From: state.State{Name: "DOING"}, To: state.State{Name: "PENDING"}},
				{Name: "finish", From: state.State{Name: "DOING"}, To: state.State{Name: "DONE"}},
			})
	})

	Describe("AvailableTransitions", func() {
		It("should match states exactly", func() {
			Ω(stateMachine.AvailableTransitions("PENDING", "DOING")).Should(Equal([]state.Transition{
				{Name: "begin", From: state.State{Name: "PENDING"}, To: state.State{Name: "DOING"}},
			}))
			Ω(stateMachine.AvailableTransitions("DONE", "PENDING")).Should(BeEmpty())
			Ω(stateMachine.AvailableTransitions("", "DOING")).Should(BeEmpty())
		})
	})

	Describe("Transit", func() {
		It("should return the transition or a conflict", func() {
			tr, err := stateMachine.Transit("DOING", "DONE")
			Expect(err).To(BeNil())
			Expect(tr.Name).To(Equal("finish"))

			tr, err = stateMachine.Transit("DONE", "DOING")
			Expect(tr).To(BeNil())
			Expect(err).To(Equal(state.ErrIllegalTransition))
		})
	})

	Describe("RecordLifecycle", func() {
		It("should delete only live rows", func() {
			for _, from := range []string{state.StatusNone, state.StatusAdded, state.StatusEdited} {
				_, err := state.RecordLifecycle.Transit(from, state.StatusDeleted)
				Expect(err).To(BeNil())
			}
			for _, from := range []string{state.StatusDeleted, state.StatusRestored} {
				_, err := state.RecordLifecycle.Transit(from, state.StatusDeleted)
				Expect(err).To(Equal(state.ErrIllegalTransition))
			}
		})

		It("should restore only deleted rows", func() {
			_, err := state.RecordLifecycle.Transit(state.StatusDeleted, state.StatusRestored)
			Expect(err).To(BeNil())
			for _, from := range []string{state.StatusNone, state.StatusAdded, state.StatusEdited, state.StatusRestored} {
				_, err := state.RecordLifecycle.Transit(from, state.StatusRestored)
				Expect(err).To(Equal(state.ErrIllegalTransition))
			}
		})

		It("should keep restored rows restored on edit", func() {
			for from, to := range map[string]string{state.StatusNone: state.StatusEdited, state.StatusAdded: state.StatusEdited,
				state.StatusEdited: state.StatusEdited, state.StatusRestored: state.StatusRestored} {
				next, err := state.StatusAfterEdit(from)
				Expect(err).To(BeNil())
				Expect(next).To(Equal(to))
			}
			_, err := state.StatusAfterEdit(state.StatusDeleted)
			Expect(err).To(Equal(state.ErrIllegalTransition))
		})

		It("should hide deleted rows only", func() {
			Expect(state.Visible(state.StatusDeleted)).To(BeFalse())
			Expect(state.Visible(state.StatusRestored)).To(BeTrue())
			Expect(state.Visible(state.StatusNone)).To(BeTrue())
		})
	})
})
