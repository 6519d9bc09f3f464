package repository

import "gorm.io/gorm"

// A project is visible to its owner and to every team member.
const projectVisibleSQL = `(projects.owner_id = ? OR EXISTS (
	SELECT 1 FROM project_members pm
	WHERE pm.project_id = projects.id AND pm.user_id = ?))`

// A task is visible to its creator and to anyone who can see one of the
// projects it belongs to.
const taskVisibleSQL = `(tasks.created_by_id = ? OR EXISTS (
	SELECT 1 FROM project_tasks pt
	JOIN projects p ON p.id = pt.project_id
	WHERE pt.task_id = tasks.id AND (p.owner_id = ? OR EXISTS (
		SELECT 1 FROM project_members pm
		WHERE pm.project_id = p.id AND pm.user_id = ?))))`

// VisibleProjects narrows a projects query to those userID may see
func VisibleProjects(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(projectVisibleSQL, userID, userID)
	}
}

// VisibleTasks narrows a tasks query to those userID may see
func VisibleTasks(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(taskVisibleSQL, userID, userID, userID)
	}
}
