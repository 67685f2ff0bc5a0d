// Baby-step screen tests
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package babystep

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"babystep-go/pkg/metrics"
)

type scriptedInput struct {
	keys  []Key
	ticks int
}

func (in *scriptedInput) NextKey() Key {
	if len(in.keys) == 0 {
		return KeyNone
	}
	k := in.keys[0]
	in.keys = in.keys[1:]
	return k
}

func (in *scriptedInput) ConsumeTicks() int {
	t := in.ticks
	in.ticks = 0
	return t
}

func (in *scriptedInput) Pending() int { return len(in.keys) }

var _ = Describe("Screen", func() {
	var (
		mockCtrl  *gomock.Controller
		presenter *MockPresenter
		confirmer *MockConfirmer
		actuator  *fakeActuator
		store     *fakeStore
		input     *scriptedInput
		m         *metrics.BabystepMetrics
		screen    *Screen
		friendly  bool
	)

	build := func() {
		var err error
		screen, err = NewScreen(ScreenConfig{
			Actuator:       actuator,
			Store:          store,
			Presenter:      presenter,
			Confirmer:      confirmer,
			Input:          input,
			Limits:         DefaultLimits(),
			FriendlyLabels: friendly,
			Metrics:        m,
		})
		Expect(err).NotTo(HaveOccurred())
	}

	poll := func() bool {
		open, err := screen.Poll()
		Expect(err).NotTo(HaveOccurred())
		return open
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		presenter = NewMockPresenter(mockCtrl)
		confirmer = NewMockConfirmer(mockCtrl)
		actuator = &fakeActuator{total: 0.2}
		store = newFakeStore(-1.5)
		input = &scriptedInput{}
		m = metrics.NewBabystepMetrics()
		friendly = false

		presenter.EXPECT().ShowPage(gomock.Any()).AnyTimes()
		presenter.EXPECT().ShowOffsets(gomock.Any(), gomock.Any()).AnyTimes()
		presenter.EXPECT().ShowUnit(gomock.Any()).AnyTimes()
	})

	It("should require its collaborators", func() {
		_, err := NewScreen(ScreenConfig{Limits: DefaultLimits()})
		Expect(err).To(HaveOccurred())
	})

	It("should reject invalid limits", func() {
		_, err := NewScreen(ScreenConfig{
			Actuator: actuator,
			Store:    store,
			Input:    input,
			Limits:   Limits{Min: 1, Max: -1, MaxChunk: 1},
		})
		Expect(err).To(HaveOccurred())
	})

	It("should reject an out of range unit index", func() {
		_, err := NewScreen(ScreenConfig{
			Actuator:  actuator,
			Store:     store,
			Input:     input,
			Limits:    DefaultLimits(),
			UnitIndex: 3,
		})
		Expect(err).To(HaveOccurred())
	})

	It("should start on the configured unit", func() {
		var err error
		screen, err = NewScreen(ScreenConfig{
			Actuator:  actuator,
			Store:     store,
			Presenter: presenter,
			Input:     input,
			Limits:    DefaultLimits(),
			UnitIndex: 2,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(screen.Open()).To(Succeed())
		Expect(screen.Status()["unit_index"]).To(Equal(2))
	})

	Context("when opened", func() {
		BeforeEach(func() {
			build()
			Expect(screen.Open()).To(Succeed())
		})

		It("should seed offsets and start a session", func() {
			status := screen.Status()
			Expect(status["open"]).To(BeTrue())
			Expect(status["pending_offset"]).To(BeNumerically("~", 0.2, 1e-9))
			Expect(status["reference_offset"]).To(BeNumerically("~", -1.5, 1e-9))
			Expect(screen.Session()).NotTo(BeEmpty())
			Expect(m.ScreenSessions.Get(nil)).To(Equal(uint64(1)))
		})

		It("should map increase and decrease keys", func() {
			input.keys = []Key{KeyIncrease, KeyIncrease, KeyDecrease}
			for i := 0; i < 3; i++ {
				Expect(poll()).To(BeTrue())
			}
			Expect(actuator.chunks).To(HaveLen(3))
			Expect(screen.Status()["pending_offset"]).To(BeNumerically("~", 0.21, 1e-9))
			Expect(store.values[AxisZ]).To(BeNumerically("~", -1.49, 1e-9))
		})

		It("should apply encoder ticks when no key is pressed", func() {
			input.ticks = -4
			Expect(poll()).To(BeTrue())
			Expect(actuator.chunks).To(HaveLen(1))
			Expect(actuator.chunks[0]).To(BeNumerically("~", -0.04, 1e-9))
		})

		It("should ignore ticks accumulated before opening", func() {
			screen.Close()
			input.ticks = 9
			Expect(screen.Open()).To(Succeed())
			Expect(poll()).To(BeTrue())
			Expect(actuator.chunks).To(BeEmpty())
		})

		It("should reset to default in bounded chunks", func() {
			input.keys = []Key{KeyReset, KeyReset}
			poll()
			poll()
			Expect(actuator.chunks).To(HaveLen(1))
			Expect(screen.Status()["pending_offset"]).To(BeNumerically("~", 0, 1e-9))
			Expect(store.values[AxisZ]).To(BeNumerically("~", -1.7, 1e-9))
		})

		It("should ask before saving", func() {
			confirmer.EXPECT().Confirm("Babystep", gomock.Any()).Return(true, nil)
			input.keys = []Key{KeySave}
			poll()
			Expect(store.commits).To(Equal(1))
		})

		It("should not commit a declined save", func() {
			confirmer.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(false, nil)
			input.keys = []Key{KeySave}
			poll()
			Expect(store.commits).To(BeZero())
		})

		It("should close on back", func() {
			input.keys = []Key{KeyBack}
			Expect(poll()).To(BeFalse())
			Expect(screen.IsOpen()).To(BeFalse())
			Expect(screen.Status()["open"]).To(BeFalse())

			open, err := screen.Poll()
			Expect(err).NotTo(HaveOccurred())
			Expect(open).To(BeFalse())
		})

		It("should keep the unit across sessions", func() {
			input.keys = []Key{KeyUnit, KeyBack}
			poll()
			poll()

			actuator.total = 0
			Expect(screen.Open()).To(Succeed())
			Expect(screen.Status()["unit_label"]).To(Equal("0.1mm"))

			input.keys = []Key{KeyIncrease}
			poll()
			Expect(actuator.chunks[len(actuator.chunks)-1]).To(BeNumerically("~", 0.1, 1e-9))
		})

		It("should show the unit in the menu", func() {
			page := screen.Page()
			Expect(page.Title).To(Equal("Babystep"))
			Expect(page.Items).To(HaveLen(8))
			Expect(page.Items[0].Label).To(Equal("Dec"))
			Expect(page.Items[3].Label).To(Equal("Inc"))
			Expect(page.Items[4].Key).To(Equal(KeySave))
			Expect(page.Items[5].Icon).To(Equal("001_mm"))
		})
	})

	Context("without persistent storage", func() {
		BeforeEach(func() {
			store.persistence = false
			build()
			Expect(screen.Open()).To(Succeed())
		})

		It("should hide and ignore save", func() {
			Expect(screen.Page().Items[4].Key).To(Equal(KeyNone))
			input.keys = []Key{KeySave}
			Expect(poll()).To(BeTrue())
			Expect(store.commits).To(BeZero())
		})
	})

	Context("with friendly labels", func() {
		BeforeEach(func() {
			friendly = true
			build()
		})

		It("should name the keys by nozzle direction", func() {
			page := screen.Page()
			Expect(page.Items[0].Label).To(Equal("Down"))
			Expect(page.Items[3].Label).To(Equal("Up"))
		})
	})

	Context("when running", func() {
		BeforeEach(func() {
			build()
		})

		It("should return once back is pressed", func() {
			input.keys = []Key{KeyIncrease, KeyBack}
			err := screen.Run(context.Background(), time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(actuator.chunks).To(HaveLen(1))
			Expect(screen.IsOpen()).To(BeFalse())
		})

		It("should stop when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := screen.Run(ctx, time.Millisecond)
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(screen.IsOpen()).To(BeFalse())
		})
	})
})

var _ = Describe("Key", func() {
	It("should round trip names", func() {
		for _, k := range []Key{KeyDecrease, KeyIncrease, KeySave, KeyUnit, KeyReset, KeyBack} {
			parsed, ok := ParseKey(k.String())
			Expect(ok).To(BeTrue())
			Expect(parsed).To(Equal(k))
		}
		_, ok := ParseKey("jump")
		Expect(ok).To(BeFalse())
	})
})
