package lifecycle

import (
	"github.com/jasminhpc/manage/internal/models"
)

// CheckProjectEditable returns a conflict unless the project is in a state
// where its services and requirements may be changed.
func CheckProjectEditable(project *models.Project) error {
	if project.Status != models.ProjectEditable {
		return NewConflict(CodeInvalidStatus,
			"project with status %s is not editable", project.Status)
	}
	return nil
}

// CheckDeleteService validates deleting a service: the project must be
// editable and the service must have no requirements, deleted or otherwise.
func CheckDeleteService(project *models.Project, numRequirements int64) error {
	if err := CheckProjectEditable(project); err != nil {
		return err
	}
	if numRequirements > 0 {
		return NewConflict(CodeHasRequirements, "cannot delete service with requirements")
	}
	return nil
}
