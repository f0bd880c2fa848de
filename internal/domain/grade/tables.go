package grade

// CompositeTable grades the weighted factor composite. D- is not reachable
// on this path: anything under 44 is an F.
var CompositeTable = Table{
	Name: "composite",
	Thresholds: []Threshold{
		{Min: 78.5, Grade: APlus},
		{Min: 76.0, Grade: A},
		{Min: 73.5, Grade: AMinus},
		{Min: 70.0, Grade: BPlus},
		{Min: 66.0, Grade: B},
		{Min: 62.0, Grade: BMinus},
		{Min: 58.0, Grade: CPlus},
		{Min: 54.0, Grade: C},
		{Min: 50.0, Grade: CMinus},
		{Min: 47.0, Grade: DPlus},
		{Min: 44.0, Grade: D},
	},
	Floor: F,
}

// MarketTable grades the confidence-adjusted market-edge score.
var MarketTable = Table{
	Name: "market",
	Thresholds: []Threshold{
		{Min: 92, Grade: APlus},
		{Min: 88, Grade: A},
		{Min: 82, Grade: AMinus},
		{Min: 78, Grade: BPlus},
		{Min: 74, Grade: B},
		{Min: 70, Grade: BMinus},
		{Min: 66, Grade: CPlus},
		{Min: 62, Grade: C},
		{Min: 58, Grade: CMinus},
		{Min: 54, Grade: DPlus},
		{Min: 48, Grade: D},
		{Min: 42, Grade: DMinus},
	},
	Floor: F,
}
