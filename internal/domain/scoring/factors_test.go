package scoring_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/okian/pickgrader/internal/domain/grade"
	"github.com/okian/pickgrader/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func sampleFactors() scoring.FactorScores {
	return scoring.FactorScores{
		OffensiveProduction: 50,
		PitchingMatchup:     54,
		SituationalEdge:     50,
		TeamMomentum:        53,
		MarketInefficiency:  95,
		SystemConfidence:    94,
	}
}

func TestComposite(t *testing.T) {
	Convey("Given the default weights", t, func() {
		w := scoring.DefaultWeights()

		Convey("Then they sum to one and validate", func() {
			So(w.Sum(), ShouldAlmostEqual, 1.0, 1e-12)
			So(w.Validate(), ShouldBeNil)
			So(w.MarketInefficiency, ShouldEqual, 0.25)
		})

		Convey("When scoring the reference factors", func() {
			res, err := scoring.GradeComposite(sampleFactors(), w, grade.CompositeTable)

			Convey("Then the composite is 68.9 and the grade is B", func() {
				So(err, ShouldBeNil)
				So(res.Score, ShouldAlmostEqual, 68.9, 1e-9)
				So(res.Grade, ShouldEqual, grade.B)
			})
		})

		Convey("When every factor is at the top of the range", func() {
			f := scoring.FactorScores{100, 100, 100, 100, 100, 100}
			res, err := scoring.GradeComposite(f, w, grade.CompositeTable)
			So(err, ShouldBeNil)
			So(res.Score, ShouldAlmostEqual, 100, 1e-9)
			So(res.Grade, ShouldEqual, grade.APlus)
		})

		Convey("When every factor is zero", func() {
			res, err := scoring.GradeComposite(scoring.FactorScores{}, w, grade.CompositeTable)
			So(err, ShouldBeNil)
			So(res.Score, ShouldEqual, 0)
			So(res.Grade, ShouldEqual, grade.F)
		})

		Convey("When raising any single factor", func() {
			Convey("Then the composite never decreases", func() {
				setters := []func(*scoring.FactorScores, float64){
					func(f *scoring.FactorScores, v float64) { f.OffensiveProduction = v },
					func(f *scoring.FactorScores, v float64) { f.PitchingMatchup = v },
					func(f *scoring.FactorScores, v float64) { f.SituationalEdge = v },
					func(f *scoring.FactorScores, v float64) { f.TeamMomentum = v },
					func(f *scoring.FactorScores, v float64) { f.MarketInefficiency = v },
					func(f *scoring.FactorScores, v float64) { f.SystemConfidence = v },
				}
				for _, set := range setters {
					f := sampleFactors()
					set(&f, 0)
					prev := scoring.Composite(f, w)
					for v := 0.5; v <= 100; v += 0.5 {
						set(&f, v)
						cur := scoring.Composite(f, w)
						So(cur, ShouldBeGreaterThanOrEqualTo, prev)
						prev = cur
					}
				}
			})
		})

		Convey("Then every valid tuple on a coarse grid gets exactly one grade", func() {
			for a := 0.0; a <= 100; a += 25 {
				for b := 0.0; b <= 100; b += 25 {
					f := scoring.FactorScores{a, b, a, b, a, b}
					res, err := scoring.GradeComposite(f, w, grade.CompositeTable)
					So(err, ShouldBeNil)
					So(res.Grade.Valid(), ShouldBeTrue)
				}
			}
		})
	})
}

func TestCompositeThresholds(t *testing.T) {
	Convey("Given factors that all equal a composite threshold", t, func() {
		w := scoring.DefaultWeights()
		for _, th := range grade.CompositeTable.Thresholds {
			f := scoring.FactorScores{
				OffensiveProduction: th.Min,
				PitchingMatchup:     th.Min,
				SituationalEdge:     th.Min,
				TeamMomentum:        th.Min,
				MarketInefficiency:  th.Min,
				SystemConfidence:    th.Min,
			}
			Convey(fmt.Sprintf("%.1f grades %s", th.Min, th.Grade), func() {
				res, err := scoring.GradeComposite(f, w, grade.CompositeTable)
				So(err, ShouldBeNil)
				So(res.Score, ShouldEqual, th.Min)
				So(res.Grade, ShouldEqual, th.Grade)
			})
		}
	})

	Convey("Given a composite just under a threshold", t, func() {
		f := scoring.FactorScores{
			OffensiveProduction: 61.99,
			PitchingMatchup:     61.99,
			SituationalEdge:     61.99,
			TeamMomentum:        61.99,
			MarketInefficiency:  61.99,
			SystemConfidence:    61.99,
		}
		res, err := scoring.GradeComposite(f, scoring.DefaultWeights(), grade.CompositeTable)
		So(err, ShouldBeNil)
		So(res.Grade, ShouldEqual, grade.CPlus)
	})
}

func TestFactorValidation(t *testing.T) {
	Convey("Given factor inputs", t, func() {
		w := scoring.DefaultWeights()

		Convey("When a factor is NaN", func() {
			f := sampleFactors()
			f.TeamMomentum = math.NaN()
			_, err := scoring.GradeComposite(f, w, grade.CompositeTable)

			Convey("Then it is rejected naming the factor", func() {
				So(errors.Is(err, scoring.ErrInvalidFactorInput), ShouldBeTrue)
				var fe *scoring.FactorError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Factor, ShouldEqual, scoring.FactorTeamMomentum)
			})
		})

		Convey("When a factor is infinite", func() {
			f := sampleFactors()
			f.SystemConfidence = math.Inf(1)
			_, err := scoring.GradeComposite(f, w, grade.CompositeTable)
			So(errors.Is(err, scoring.ErrInvalidFactorInput), ShouldBeTrue)
		})

		Convey("When a factor is out of range", func() {
			f := sampleFactors()
			f.MarketInefficiency = 100.5
			So(errors.Is(f.Validate(), scoring.ErrInvalidFactorInput), ShouldBeTrue)

			f = sampleFactors()
			f.PitchingMatchup = -0.1
			So(errors.Is(f.Validate(), scoring.ErrInvalidFactorInput), ShouldBeTrue)
		})

		Convey("When a factor is missing on the wire", func() {
			p := scoring.PartialFactors{
				OffensiveProduction: ptr(50.0),
				PitchingMatchup:     ptr(54.0),
				SituationalEdge:     ptr(50.0),
				TeamMomentum:        ptr(53.0),
				SystemConfidence:    ptr(94.0),
			}
			_, err := p.Resolve()

			Convey("Then it is not defaulted to zero", func() {
				So(errors.Is(err, scoring.ErrInvalidFactorInput), ShouldBeTrue)
				var fe *scoring.FactorError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Factor, ShouldEqual, scoring.FactorMarketInefficiency)
				So(err.Error(), ShouldContainSubstring, "missing")
			})
		})

		Convey("When every factor is present on the wire", func() {
			p := scoring.PartialFactors{
				OffensiveProduction: ptr(50.0),
				PitchingMatchup:     ptr(54.0),
				SituationalEdge:     ptr(50.0),
				TeamMomentum:        ptr(53.0),
				MarketInefficiency:  ptr(95.0),
				SystemConfidence:    ptr(94.0),
			}
			f, err := p.Resolve()
			So(err, ShouldBeNil)
			So(f, ShouldResemble, sampleFactors())
		})
	})
}

func TestWeights(t *testing.T) {
	Convey("Given custom weights", t, func() {
		Convey("When they do not sum to one", func() {
			w := scoring.DefaultWeights()
			w.TeamMomentum = 0.25
			So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
		})

		Convey("When one is negative", func() {
			w := scoring.DefaultWeights()
			w.TeamMomentum = -0.05
			w.SystemConfidence = 0.35
			So(errors.Is(w.Validate(), scoring.ErrInvalidWeights), ShouldBeTrue)
		})

		Convey("When built from a complete map", func() {
			w, err := scoring.WeightsFromMap(scoring.DefaultWeights().Map())
			So(err, ShouldBeNil)
			So(w, ShouldResemble, scoring.DefaultWeights())
		})

		Convey("When the map misses a factor", func() {
			m := scoring.DefaultWeights().Map()
			delete(m, scoring.FactorPitchingMatchup)
			_, err := scoring.WeightsFromMap(m)
			So(errors.Is(err, scoring.ErrInvalidWeights), ShouldBeTrue)
		})

		Convey("When the map has an unknown factor", func() {
			m := scoring.DefaultWeights().Map()
			m["bullpen"] = 0.1
			_, err := scoring.WeightsFromMap(m)
			So(errors.Is(err, scoring.ErrInvalidWeights), ShouldBeTrue)
		})
	})
}
