package model

// ExamInstructions is the static content behind the integrity gate's first
// step. Served in Marathi with an English fallback; acknowledgment is not
// persisted, only the later pledge is.
type ExamInstructions struct {
	Marathi []string `json:"marathi"`
	English []string `json:"english"`
	// Pledge is the text the student must explicitly accept before the
	// camera capture step.
	PledgeMarathi string `json:"pledge_marathi"`
	PledgeEnglish string `json:"pledge_english"`
}

// DefaultInstructions returns the standard instruction set shown before
// every exam.
func DefaultInstructions() ExamInstructions {
	return ExamInstructions{
		Marathi: []string{
			"परीक्षा सुरू झाल्यावर वेळ थांबत नाही. इंटरनेट बंद पडले तरी वेळ चालू राहते.",
			"प्रत्येक प्रश्नाला चार पर्याय आहेत; एकच पर्याय निवडता येतो.",
			"तुमचे उत्तर आपोआप जतन होते. पान रिफ्रेश झाल्यास परीक्षा तिथूनच पुढे चालू होते.",
			"वेळ संपल्यावर परीक्षा आपोआप सबमिट होते.",
			"परीक्षा सुरू करण्यापूर्वी कॅमेऱ्याने तुमचा फोटो घेतला जाईल.",
			"एकदा सबमिट केल्यानंतर पुन्हा परीक्षा देता येणार नाही.",
		},
		English: []string{
			"The timer never pauses once the exam starts, even if your connection drops.",
			"Each question has four options; exactly one may be selected.",
			"Answers are saved automatically. If the page reloads, the exam resumes where you left off.",
			"The exam submits automatically when time runs out.",
			"A camera snapshot of you will be taken before the exam starts.",
			"Once submitted, the exam cannot be taken again.",
		},
		PledgeMarathi: "मी प्रतिज्ञा करतो/करते की ही परीक्षा मी स्वतः, कोणाचीही मदत न घेता देईन.",
		PledgeEnglish: "I pledge to take this exam myself, without any external help.",
	}
}
