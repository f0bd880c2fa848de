package grade_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/pickgrader/internal/domain/grade"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGradeEnumeration(t *testing.T) {
	Convey("Given the grade enumeration", t, func() {
		all := grade.All()

		Convey("Then it has 13 ordered letters", func() {
			So(len(all), ShouldEqual, 13)
			So(all[0], ShouldEqual, grade.APlus)
			So(all[12], ShouldEqual, grade.F)
			for i := 1; i < len(all); i++ {
				So(all[i-1].Better(all[i]), ShouldBeTrue)
			}
		})

		Convey("Then every letter round-trips through Parse", func() {
			for _, g := range all {
				parsed, err := grade.Parse(g.String())
				So(err, ShouldBeNil)
				So(parsed, ShouldEqual, g)
			}
		})

		Convey("When parsing an unknown letter", func() {
			_, err := grade.Parse("E")

			Convey("Then it should fail with ErrUnknownGrade", func() {
				So(errors.Is(err, grade.ErrUnknownGrade), ShouldBeTrue)
			})
		})

		Convey("When formatting an out-of-range value", func() {
			So(grade.Grade(42).Valid(), ShouldBeFalse)
			So(grade.Grade(42).String(), ShouldEqual, "Grade(42)")
		})
	})
}

func TestGradeJSON(t *testing.T) {
	Convey("Given a struct with a grade field", t, func() {
		type payload struct {
			Grade grade.Grade `json:"grade"`
		}

		Convey("When marshalling", func() {
			b, err := json.Marshal(payload{Grade: grade.BMinus})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"grade":"B-"}`)
		})

		Convey("When unmarshalling a letter", func() {
			var p payload
			err := json.Unmarshal([]byte(`{"grade":"A+"}`), &p)
			So(err, ShouldBeNil)
			So(p.Grade, ShouldEqual, grade.APlus)
		})

		Convey("When unmarshalling garbage", func() {
			var p payload
			err := json.Unmarshal([]byte(`{"grade":"Z"}`), &p)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCompositeTable(t *testing.T) {
	Convey("Given the composite table", t, func() {
		table := grade.CompositeTable

		Convey("Then it validates", func() {
			So(table.Validate(), ShouldBeNil)
		})

		Convey("Then the boundaries are inclusive", func() {
			So(table.Classify(78.5), ShouldEqual, grade.APlus)
			So(table.Classify(78.49999), ShouldEqual, grade.A)
			So(table.Classify(76.0), ShouldEqual, grade.A)
			So(table.Classify(73.5), ShouldEqual, grade.AMinus)
			So(table.Classify(70.0), ShouldEqual, grade.BPlus)
			So(table.Classify(66.0), ShouldEqual, grade.B)
			So(table.Classify(62.0), ShouldEqual, grade.BMinus)
			So(table.Classify(58.0), ShouldEqual, grade.CPlus)
			So(table.Classify(54.0), ShouldEqual, grade.C)
			So(table.Classify(50.0), ShouldEqual, grade.CMinus)
			So(table.Classify(47.0), ShouldEqual, grade.DPlus)
			So(table.Classify(44.0), ShouldEqual, grade.D)
			So(table.Classify(43.999), ShouldEqual, grade.F)
		})

		Convey("Then 68.9 is a B", func() {
			So(table.Classify(68.9), ShouldEqual, grade.B)
		})

		Convey("Then extreme and NaN scores still get a grade", func() {
			So(table.Classify(math.Inf(1)), ShouldEqual, grade.APlus)
			So(table.Classify(math.Inf(-1)), ShouldEqual, grade.F)
			So(table.Classify(math.NaN()), ShouldEqual, grade.F)
		})

		Convey("Then every score in a sweep maps to a valid grade", func() {
			for s := -10.0; s <= 110.0; s += 0.25 {
				So(table.Classify(s).Valid(), ShouldBeTrue)
			}
		})
	})
}

func TestMarketTable(t *testing.T) {
	Convey("Given the market table", t, func() {
		table := grade.MarketTable

		Convey("Then it validates", func() {
			So(table.Validate(), ShouldBeNil)
		})

		Convey("Then it maps its documented bounds", func() {
			So(table.Classify(92), ShouldEqual, grade.APlus)
			So(table.Classify(91.99), ShouldEqual, grade.A)
			So(table.Classify(88), ShouldEqual, grade.A)
			So(table.Classify(82), ShouldEqual, grade.AMinus)
			So(table.Classify(42), ShouldEqual, grade.DMinus)
			So(table.Classify(41.99), ShouldEqual, grade.F)
		})
	})
}

func TestTableValidate(t *testing.T) {
	Convey("Given malformed tables", t, func() {
		Convey("When bounds are not descending", func() {
			table := grade.Table{
				Name: "bad",
				Thresholds: []grade.Threshold{
					{Min: 50, Grade: grade.A},
					{Min: 60, Grade: grade.B},
				},
				Floor: grade.F,
			}
			So(table.Validate(), ShouldNotBeNil)
		})

		Convey("When grades are out of order", func() {
			table := grade.Table{
				Name: "bad",
				Thresholds: []grade.Threshold{
					{Min: 60, Grade: grade.B},
					{Min: 50, Grade: grade.A},
				},
				Floor: grade.F,
			}
			So(table.Validate(), ShouldNotBeNil)
		})

		Convey("When a bound is NaN", func() {
			table := grade.Table{
				Name:       "bad",
				Thresholds: []grade.Threshold{{Min: math.NaN(), Grade: grade.A}},
				Floor:      grade.F,
			}
			So(table.Validate(), ShouldNotBeNil)
		})

		Convey("When the floor is not a grade", func() {
			table := grade.Table{Name: "bad", Floor: grade.Grade(99)}
			So(errors.Is(table.Validate(), grade.ErrUnknownGrade), ShouldBeTrue)
		})
	})
}
