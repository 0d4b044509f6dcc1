package ctgov

import "TrialSync/internal/model"

// sampleStudies 内置示例数据：仅在调用方显式传入SampleMode时返回，线上不会走到这里
var sampleStudies = []model.CTGovStudy{
	{
		ProtocolSection: model.CTGovProtocolSection{
			IdentificationModule: model.CTGovIdentificationModule{
				NCTID:      "NCT05012345",
				BriefTitle: "Wearable Cardiac Monitoring in Post-Surgical Recovery",
			},
			StatusModule: model.CTGovStatusModule{
				OverallStatus:        "RECRUITING",
				StartDateStruct:      model.CTGovDateStruct{Date: "2024-03-01"},
				CompletionDateStruct: model.CTGovDateStruct{Date: "2026-09-30"},
			},
			DesignModule:     model.CTGovDesignModule{StudyType: "INTERVENTIONAL"},
			ConditionsModule: model.CTGovConditionsModule{Conditions: []string{"Atrial Fibrillation"}},
			SponsorModule: model.CTGovSponsorModule{
				LeadSponsor: model.CTGovLeadSponsor{Name: "Meditronix Labs"},
			},
		},
	},
	{
		ProtocolSection: model.CTGovProtocolSection{
			IdentificationModule: model.CTGovIdentificationModule{
				NCTID:      "NCT05098765",
				BriefTitle: "Continuous Glucose Sensor Accuracy Study",
			},
			StatusModule: model.CTGovStatusModule{
				OverallStatus:   "COMPLETED",
				StartDateStruct: model.CTGovDateStruct{Date: "2023-06"},
			},
			DesignModule:     model.CTGovDesignModule{StudyType: "OBSERVATIONAL"},
			ConditionsModule: model.CTGovConditionsModule{Conditions: []string{"Type 2 Diabetes"}},
			SponsorModule: model.CTGovSponsorModule{
				LeadSponsor: model.CTGovLeadSponsor{Name: "GlucoSense BV"},
			},
		},
	},
}

func (c *Client) sampleBatch(maxRecords int) []*model.RawTrial {
	var raws []*model.RawTrial
	for _, s := range sampleStudies {
		if len(raws) >= maxRecords {
			break
		}
		raws = append(raws, &model.RawTrial{
			Source: c.GetSource(),
			ID:     s.ProtocolSection.IdentificationModule.NCTID,
			Data:   s,
		})
	}
	return raws
}
