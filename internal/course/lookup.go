package course

// FindLesson resolves a lesson inside the aggregate. Unit-scoped and direct
// lessons are two distinct lookup paths: when unitID is non-empty the lesson
// is searched only under that unit, otherwise only among the course's direct
// lessons. Each miss on the path names the entity that was absent.
func FindLesson(c *Course, unitID, lessonID string) (*Lesson, *Unit, error) {
	if unitID != "" {
		for ui := range c.Units {
			if c.Units[ui].ID != unitID {
				continue
			}
			u := &c.Units[ui]
			for li := range u.Lessons {
				if u.Lessons[li].ID == lessonID {
					return &u.Lessons[li], u, nil
				}
			}
			return nil, nil, notFound("lesson", lessonID)
		}
		return nil, nil, notFound("unit", unitID)
	}
	for li := range c.Lessons {
		if c.Lessons[li].ID == lessonID {
			return &c.Lessons[li], nil, nil
		}
	}
	return nil, nil, notFound("lesson", lessonID)
}

// FindAssessment resolves an assessment of the given kind within a lesson.
// For KindEntry the assessmentID is ignored: a lesson has at most one entry
// requirement and only the mcq variant has questions to attempt.
func FindAssessment(l *Lesson, kind AssessmentKind, assessmentID string) (*Assessment, error) {
	switch kind {
	case KindTraining:
		for i := range l.Trainings {
			if l.Trainings[i].ID == assessmentID {
				return &l.Trainings[i], nil
			}
		}
	case KindExam:
		for i := range l.Exams {
			if l.Exams[i].ID == assessmentID {
				return &l.Exams[i], nil
			}
		}
	case KindEntry:
		if l.Entry != nil && l.Entry.Kind == EntryMCQ && l.Entry.MCQ != nil {
			return l.Entry.MCQ, nil
		}
		return nil, notFound("entry requirement", l.ID)
	}
	return nil, notFound("assessment", assessmentID)
}
