package export

import (
	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

var usersHeader = []string{"Identifiant", "Nom complet", "Rôle", "Email", "Téléphone", "Classe", "Liens familiaux", "Actif"}

// UsersSheets splits the export into an overview sheet and one sheet per role.
func UsersSheets(rows []db.UserExportRow) []SheetSpec {
	all := SheetSpec{Title: "Tous", Header: usersHeader}
	byRole := map[models.Role]*SheetSpec{
		models.Teacher: {Title: "Enseignants", Header: usersHeader},
		models.Admin:   {Title: "Administration", Header: usersHeader},
		models.Student: {Title: "Élèves", Header: usersHeader},
		models.Parent:  {Title: "Parents", Header: usersHeader},
	}
	for _, r := range rows {
		line := []any{r.Username, r.FullName, r.Role.Label(), r.Email, r.Phone, r.ClassName, r.Related, yesNo(r.IsActive)}
		all.Rows = append(all.Rows, line)
		if s, ok := byRole[r.Role]; ok {
			s.Rows = append(s.Rows, line)
		}
	}
	return []SheetSpec{all, *byRole[models.Teacher], *byRole[models.Admin], *byRole[models.Student], *byRole[models.Parent]}
}

func yesNo(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}
