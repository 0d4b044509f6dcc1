package euctr

import "TrialSync/internal/model"

// sampleTrials 内置示例数据：仅在调用方显式传入SampleMode时返回
var sampleTrials = []model.EUCTRTrial{
	{
		EudraCTID:      "2022-001234-56",
		PublicTitle:    "A study on the use of a new medical device for joint repair",
		Condition:      "Osteoarthritis",
		StudyType:      "Interventional clinical trial of medicinal product",
		Status:         "Ongoing",
		StartDate:      "2022-05-15",
		CompletionDate: "2024-12-31",
		MainSponsor:    "Veltrix Orthopaedics",
	},
	{
		EudraCTID:   "2023-004321-09",
		PublicTitle: "Observational registry of implantable hearing aids",
		Condition:   "Sensorineural hearing loss",
		Status:      "Completed",
		StartDate:   "2023-02-01",
		MainSponsor: "AudioMed GmbH",
	},
}

func (c *Client) sampleBatch(maxRecords int) []*model.RawTrial {
	var raws []*model.RawTrial
	for _, t := range sampleTrials {
		if len(raws) >= maxRecords {
			break
		}
		raws = append(raws, &model.RawTrial{
			Source: c.GetSource(),
			ID:     t.EudraCTID,
			Data:   t,
		})
	}
	return raws
}
