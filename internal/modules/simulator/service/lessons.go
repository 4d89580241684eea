package service

import (
	"sort"

	"cryptosim/internal/models"
)

var lessonCatalog = map[int]string{
	1: "Основы блокчейна",
	2: "Чтение графиков",
	3: "Торговые стратегии",
}

type lessonState struct {
	progress  int
	completed bool
}

// UpdateLessonProgress ставит прогресс 0..100. true, если урок завершён впервые.
func (p *Progression) UpdateLessonProgress(id, progress int) (bool, error) {
	if _, ok := lessonCatalog[id]; !ok {
		return false, ErrUnknownLesson
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	st, ok := p.lessons[id]
	if !ok {
		st = &lessonState{}
		p.lessons[id] = st
	}
	st.progress = progress
	if progress < 100 || st.completed {
		return false, nil
	}
	st.completed = true
	return true, nil
}

func (p *Progression) LessonProgress(id int) int {
	if st, ok := p.lessons[id]; ok {
		return st.progress
	}
	return 0
}

func (p *Progression) LessonsCompleted() int {
	n := 0
	for _, st := range p.lessons {
		if st.completed {
			n++
		}
	}
	return n
}

// Lessons каталог с текущим прогрессом по возрастанию id.
func (p *Progression) Lessons() []models.Lesson {
	out := make([]models.Lesson, 0, len(lessonCatalog))
	for id, title := range lessonCatalog {
		out = append(out, models.Lesson{ID: id, Title: title, Progress: p.LessonProgress(id)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
