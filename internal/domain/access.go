package domain

import "time"

type AccessState string

const (
	AccessNone      AccessState = "none"
	AccessPermanent AccessState = "permanent"
	AccessTimed     AccessState = "timed"
	AccessExpired   AccessState = "expired"
)

// Access состояние доступа юзера к курсу. Нигде не хранится, вычисляется по леджеру в момент запроса.
type Access struct {
	State AccessState
	// ExpiresAt максимальный срок аренды, для AccessTimed и AccessExpired.
	ExpiresAt *time.Time
}

// HasAccess true, если курс доступен в данный момент.
func (a Access) HasAccess() bool {
	return a.State == AccessPermanent || a.State == AccessTimed
}

// ResolveAccess вычисляет доступ к курсу по платежам юзера.
//
// Бесплатный курс и любая бессрочная оплата дают постоянный доступ. Иначе берется максимальный срок среди аренд
// курса: если он позже now - доступ есть, иначе аренда истекла. Повторная аренда не затирает прежние записи,
// а просто сдвигает максимум.
func ResolveAccess(course *Course, payments []Transaction, now time.Time) Access {
	if course.Type == CourseTypeFree {
		return Access{State: AccessPermanent}
	}

	var latest *time.Time
	for i := range payments {
		p := payments[i]
		if p.Type != TransactionTypePayment || p.CourseID == nil || *p.CourseID != course.ID {
			continue
		}
		if p.ExpiresAt == nil {
			return Access{State: AccessPermanent}
		}
		if latest == nil || p.ExpiresAt.After(*latest) {
			latest = p.ExpiresAt
		}
	}

	switch {
	case latest == nil:
		return Access{State: AccessNone}
	case latest.After(now):
		return Access{State: AccessTimed, ExpiresAt: latest}
	default:
		return Access{State: AccessExpired, ExpiresAt: latest}
	}
}
