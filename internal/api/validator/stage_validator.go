package validator

import (
	"fmt"
	"strconv"

	"github.com/domain-cutover/internal/model"
)

// ValidateStageParam 校验路径中的步骤编号, 只接受 1..4
func ValidateStageParam(value string) (model.Stage, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, model.Validation(fmt.Sprintf("'%s' 不是一个合法的步骤编号", value))
	}
	stage, err := model.ParseStage(n)
	if err != nil {
		return 0, model.Validation(fmt.Sprintf("不支持的步骤 '%s'", value))
	}
	return stage, nil
}
